package sim

import (
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingTicker struct {
	ticks []VTimeInSec
}

func (t *countingTicker) Tick(now VTimeInSec) {
	t.ticks = append(t.ticks, now)
}

var _ = ginkgo.Describe("TickRunner", func() {
	var (
		ctx    *Context
		ticker *countingTicker
		runner *TickRunner
	)

	ginkgo.BeforeEach(func() {
		ctx = MakeContext(1)
		ticker = &countingTicker{}
		runner = NewTickRunner(ctx, ticker, 10*Hz)
	})

	ginkgo.It("should advance the clock by one period per tick", func() {
		runner.StepN(3)

		Expect(ticker.ticks).To(HaveLen(3))
		Expect(ticker.ticks[0]).To(BeNumerically("~", 0.1, 1e-12))
		Expect(ticker.ticks[2]).To(BeNumerically("~", 0.3, 1e-12))
		Expect(runner.CurrentTime()).To(BeNumerically("~", 0.3, 1e-12))
	})

	ginkgo.It("should invoke hooks around each tick", func() {
		var positions []*HookPos
		runner.AcceptHook(hookFunc(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		runner.StepN(1)

		Expect(positions).To(Equal(
			[]*HookPos{HookPosBeforeTick, HookPosAfterTick}))
	})

	ginkgo.It("should tolerate repeated pause and continue", func() {
		runner.Pause()
		runner.Pause()
		runner.Continue()
		runner.Continue()

		runner.StepN(1)

		Expect(ticker.ticks).To(HaveLen(1))
	})

	ginkgo.It("should stop a paced run", func() {
		runner.Stop()
		runner.Stop()

		done := make(chan struct{})
		go func() {
			runner.Run()
			close(done)
		}()

		Eventually(done).Should(BeClosed())
	})
})
