package transport

// SerpentineOrder returns the 1-based belt indices of a rows x cols grid in
// serpentine traversal order: row-major, with every odd row reversed. The
// result follows the physically contiguous path across the belt arrangement.
func SerpentineOrder(rows, cols int) []int {
	order := make([]int, 0, rows*cols)

	for r := 0; r < rows; r++ {
		if r%2 == 0 {
			for c := 0; c < cols; c++ {
				order = append(order, r*cols+c+1)
			}
		} else {
			for c := cols - 1; c >= 0; c-- {
				order = append(order, r*cols+c+1)
			}
		}
	}

	return order
}
