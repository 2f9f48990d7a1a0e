package gap

import (
	"cmp"
	"maps"
	"slices"

	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

// detectStrengths lists met requirements and notable unrequired skills,
// strongest first.
func (e *Engine) detectStrengths(g *skillgraph.Graph, calc *calculation) []string {
	type strength struct {
		id    string
		name  string
		level int
	}

	var found []strength
	for _, r := range calc.met {
		if r.current > 0 {
			found = append(found, strength{id: r.skill.ID, name: displayName(g, r.skill.ID), level: r.current})
		}
	}
	for _, id := range slices.Sorted(maps.Keys(calc.levels)) {
		if _, required := calc.required[id]; required {
			continue
		}
		if lvl := calc.levels[id]; lvl >= e.policy.NotableThreshold {
			found = append(found, strength{id: id, name: displayName(g, id), level: lvl})
		}
	}

	slices.SortFunc(found, func(a, b strength) int {
		if c := cmp.Compare(b.level, a.level); c != 0 {
			return c
		}
		if c := cmp.Compare(a.name, b.name); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	names := make([]string, 0, len(found))
	for _, s := range found {
		names = append(names, s.name)
	}
	return names
}
