package plant

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Mode", func() {
	It("should round-trip names", func() {
		for _, mode := range []Mode{Collect, Drain, Hang} {
			parsed, ok := ParseMode(mode.String())
			Expect(ok).To(BeTrue())
			Expect(parsed).To(Equal(mode))
		}
	})

	It("should accept lowercase names", func() {
		parsed, ok := ParseMode("drain")
		Expect(ok).To(BeTrue())
		Expect(parsed).To(Equal(Drain))
	})

	It("should reject unknown names", func() {
		_, ok := ParseMode("flush")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("EventKind", func() {
	It("should have a distinct name per kind", func() {
		kinds := []EventKind{
			EventLoaded, EventSwitched, EventDrainEntered, EventQueued,
			EventFed, EventServiced, EventStored, EventReleased,
			EventAbandoned,
		}

		seen := map[string]bool{}
		for _, k := range kinds {
			Expect(seen[k.String()]).To(BeFalse())
			seen[k.String()] = true
		}
		Expect(seen["unknown"]).To(BeFalse())
	})
})
