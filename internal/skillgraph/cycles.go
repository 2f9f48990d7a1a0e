package skillgraph

import (
	"slices"
	"strings"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

const (
	unvisited = iota
	onStack
	done
)

// detectCycles runs a depth-first search over the edges that propagate
// importance and reports one warning per distinct back edge cycle.
func detectCycles(g *Graph) []domain.GraphIntegrityWarning {
	state := make(map[string]int, len(g.order))
	seen := make(map[string]bool)
	var stack []string
	var warnings []domain.GraphIntegrityWarning

	var visit func(id string)
	visit = func(id string) {
		state[id] = onStack
		stack = append(stack, id)

		for _, n := range g.out[id] {
			if !n.Kind.Propagates() {
				continue
			}
			switch state[n.SkillID] {
			case unvisited:
				visit(n.SkillID)
			case onStack:
				start := slices.Index(stack, n.SkillID)
				members := slices.Clone(stack[start:])
				key := cycleKey(members)
				if seen[key] {
					continue
				}
				seen[key] = true
				warnings = append(warnings, domain.GraphIntegrityWarning{
					Cycle: append(members, n.SkillID),
				})
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			visit(id)
		}
	}

	return warnings
}

// cycleKey identifies a cycle independent of where the walk entered it
func cycleKey(members []string) string {
	minIdx := 0
	for i, id := range members {
		if id < members[minIdx] {
			minIdx = i
		}
	}
	rotated := append(slices.Clone(members[minIdx:]), members[:minIdx]...)
	return strings.Join(rotated, "\x00")
}
