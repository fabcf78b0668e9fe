package stats

import "sort"

// TopCells returns the indexes of the n cells with the most keys, busiest
// first and by index on ties.
func TopCells(r GridReport, n int) []int {
	if n <= 0 || len(r.Counts) == 0 {
		return nil
	}
	idx := make([]int, len(r.Counts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return r.Counts[idx[i]] > r.Counts[idx[j]]
	})
	return idx[:min(n, len(idx))]
}
