package gap

import (
	"maps"
	"slices"

	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

// record is one required skill compared against the user's current level
type record struct {
	skill    domain.Skill
	current  int
	required int
}

func (r record) size() int {
	return r.required - r.current
}

// calculation is the output of the gap calculator. gaps and met are ordered
// by skill ID.
type calculation struct {
	gaps     []record
	met      []record
	required map[string]int
	levels   map[string]int
}

func (c *calculation) isGapped(id string) bool {
	req, ok := c.required[id]
	return ok && req > c.levels[id]
}

// calculateGaps compares every requirement against the recorded level. Any
// out-of-domain level or unknown skill fails the whole calculation.
func (e *Engine) calculateGaps(g *skillgraph.Graph, levels, requirements map[string]int) (*calculation, error) {
	verr := &domain.ValidationError{}

	for _, id := range slices.Sorted(maps.Keys(levels)) {
		if !g.Has(id) {
			verr.Add("level recorded for unknown skill %q", id)
		}
		if lvl := levels[id]; lvl < 0 || lvl > e.policy.MaxLevel {
			verr.Add("level %d for %q outside [0,%d]", lvl, id, e.policy.MaxLevel)
		}
	}

	calc := &calculation{required: requirements, levels: levels}

	for _, id := range slices.Sorted(maps.Keys(requirements)) {
		skill, ok := g.Skill(id)
		if !ok {
			verr.Add("requirement references unknown skill %q", id)
			continue
		}
		req := requirements[id]
		if req < 0 || req > e.policy.MaxLevel {
			verr.Add("required level %d for %q outside [0,%d]", req, id, e.policy.MaxLevel)
			continue
		}

		r := record{skill: skill, current: levels[id], required: req}
		if r.size() > 0 {
			calc.gaps = append(calc.gaps, r)
		} else {
			calc.met = append(calc.met, r)
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return calc, nil
}
