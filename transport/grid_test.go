package transport

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SerpentineOrder", func() {
	It("should reverse every odd row", func() {
		Expect(SerpentineOrder(3, 4)).To(Equal(
			[]int{1, 2, 3, 4, 8, 7, 6, 5, 9, 10, 11, 12}))
	})

	It("should handle a single row", func() {
		Expect(SerpentineOrder(1, 3)).To(Equal([]int{1, 2, 3}))
	})

	It("should handle a single column", func() {
		Expect(SerpentineOrder(3, 1)).To(Equal([]int{1, 2, 3}))
	})
})

var _ = Describe("BeltGrid", func() {
	var grid *BeltGrid

	BeforeEach(func() {
		grid = NewBeltGrid(2, 2, 10, 1)
	})

	It("should name belts by index", func() {
		Expect(grid.Belt(1).Name()).To(Equal("B01"))
		Expect(grid.Belt(4).Name()).To(Equal("B04"))
	})

	It("should assign round-robin in serpentine order", func() {
		belts := []int{}
		for i := 1; i <= 5; i++ {
			belts = append(belts, grid.Assign(newItem(uint64(i)), 0))
		}

		Expect(belts).To(Equal([]int{1, 2, 4, 3, 1}))
	})

	It("should place at explicit slots", func() {
		it := newItem(1)
		grid.Place(it, 3, 4.5, 0)

		Expect(it.Where).To(Equal("B03"))
		Expect(it.Pos).To(Equal(4.5))
	})

	It("should pick random slots within bounds", func() {
		r := rand.New(rand.NewSource(1))

		for i := 0; i < 100; i++ {
			idx, pos := grid.RandomSlot(r)
			Expect(idx).To(BeNumerically(">=", 1))
			Expect(idx).To(BeNumerically("<=", 4))
			Expect(pos).To(BeNumerically(">=", 0))
			Expect(pos).To(BeNumerically("<", 10))
		}
	})

	It("should flush arrivals in serpentine order once exit is allowed",
		func() {
			a := newItem(1)
			b := newItem(2)
			grid.Place(a, 4, 9.5, 0)
			grid.Place(b, 2, 9.5, 0)
			grid.SetAllowExit(true)

			flushed := grid.Step(1, 1)

			Expect(flushed).To(HaveLen(2))
			Expect(flushed[0].ID).To(Equal(uint64(2)))
			Expect(flushed[1].ID).To(Equal(uint64(1)))
		})

	It("should count items across belts", func() {
		grid.Assign(newItem(1), 0)
		grid.Assign(newItem(2), 0)

		Expect(grid.NumItems()).To(Equal(2))
		Expect(grid.TakeAll()).To(HaveLen(2))
		Expect(grid.NumItems()).To(Equal(0))
	})
})
