package sim

import (
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Buffer", func() {
	var buf Buffer

	ginkgo.BeforeEach(func() {
		buf = NewBuffer("buf", 2)
	})

	ginkgo.It("should push and pop in order", func() {
		buf.Push(1)
		buf.Push(2)

		Expect(buf.Size()).To(Equal(2))
		Expect(buf.Pop()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(2))
		Expect(buf.Pop()).To(BeNil())
	})

	ginkgo.It("should peek without removing", func() {
		buf.Push(1)

		Expect(buf.Peek()).To(Equal(1))
		Expect(buf.Size()).To(Equal(1))
	})

	ginkgo.It("should report when full", func() {
		buf.Push(1)
		buf.Push(2)

		Expect(buf.CanPush()).To(BeFalse())
	})

	ginkgo.It("should panic on overflow", func() {
		buf.Push(1)
		buf.Push(2)

		Expect(func() { buf.Push(3) }).To(Panic())
	})

	ginkgo.It("should expose its elements in order", func() {
		buf.Push(1)
		buf.Push(2)

		Expect(buf.Elements()).To(Equal([]interface{}{1, 2}))
	})

	ginkgo.It("should clear", func() {
		buf.Push(1)
		buf.Clear()

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.CanPush()).To(BeTrue())
	})

	ginkgo.It("should invoke hooks on push and pop", func() {
		var positions []*HookPos
		buf.AcceptHook(hookFunc(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		buf.Push(1)
		buf.Pop()

		Expect(positions).To(Equal([]*HookPos{HookPosBufPush, HookPosBufPop}))
	})
})

type hookFunc func(ctx HookCtx)

func (f hookFunc) Func(ctx HookCtx) {
	f(ctx)
}
