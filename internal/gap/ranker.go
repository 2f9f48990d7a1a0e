package gap

import (
	"cmp"
	"slices"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// rank orders gap items by impact, gap size, effort and finally skill ID,
// then assigns dense priorities starting at 1.
func rank(items []domain.GapItem) {
	slices.SortStableFunc(items, func(a, b domain.GapItem) int {
		if c := cmp.Compare(b.Impact, a.Impact); c != 0 {
			return c
		}
		if c := cmp.Compare(b.GapSize, a.GapSize); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EstimatedTimeWeeks, b.EstimatedTimeWeeks); c != 0 {
			return c
		}
		return cmp.Compare(a.SkillID, b.SkillID)
	})

	for i := range items {
		items[i].Priority = i + 1
	}
}
