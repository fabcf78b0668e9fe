package stats

import (
	"sort"

	"github.com/verte-zerg/proxgrid/internal/model"
)

// WeakestKeys returns up to top key codes with the lowest hit accuracy. A
// non-positive top returns every key.
func WeakestKeys(keys map[int]model.KeyTally, top int) []int {
	codes := make([]int, 0, len(keys))
	for code := range keys {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		ai, aj := keyAccuracy(keys[codes[i]]), keyAccuracy(keys[codes[j]])
		if ai == aj {
			return codes[i] < codes[j]
		}
		return ai < aj
	})
	if top <= 0 || top > len(codes) {
		top = len(codes)
	}
	return codes[:top]
}

func keyAccuracy(t model.KeyTally) float64 {
	if t.Samples == 0 {
		return 1.0
	}
	return float64(t.Hits) / float64(t.Samples)
}
