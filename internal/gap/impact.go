package gap

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

// impact is the propagated importance of closing one gap
type impact struct {
	raw     float64
	score   float64
	unlocks []string
}

// propagateImpact scores every gapped skill by the required skills reachable
// through prerequisite and builds_on edges, then normalizes to [0,1].
func (e *Engine) propagateImpact(ctx context.Context, g *skillgraph.Graph, calc *calculation) (map[string]*impact, error) {
	dependents := e.gappedDependents(g, calc)
	result := make(map[string]*impact, len(calc.gaps))

	var maxRaw float64
	for _, r := range calc.gaps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("impact propagation: %w", err)
		}

		reach, unlocks := e.traverse(g, r.skill.ID, calc.required)
		raw := e.policy.PrerequisiteWeight*float64(dependents[r.skill.ID]) + reach
		result[r.skill.ID] = &impact{raw: raw, unlocks: unlocks}

		if raw > maxRaw {
			maxRaw = raw
		}
	}

	divisor := maxRaw
	if divisor == 0 {
		divisor = 1
	}
	for _, imp := range result {
		imp.score = imp.raw / divisor
	}

	return result, nil
}

// traverse walks outgoing propagating edges breadth first up to MaxDepth.
// Each required skill reached for the first time at hop h contributes
// strength * decay^(h-1).
func (e *Engine) traverse(g *skillgraph.Graph, start string, required map[string]int) (float64, []string) {
	visited := map[string]bool{start: true}
	frontier := []string{start}
	weight := 1.0

	var total float64
	var unlocks []string

	for hop := 1; hop <= e.policy.MaxDepth && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			for n := range g.Neighbors(id, skillgraph.Outgoing) {
				if !n.Kind.Propagates() || visited[n.SkillID] {
					continue
				}
				visited[n.SkillID] = true
				next = append(next, n.SkillID)

				if _, ok := required[n.SkillID]; ok {
					total += n.Strength * weight
					unlocks = append(unlocks, n.SkillID)
				}
			}
		}
		frontier = next
		weight *= e.policy.DecayFactor
	}

	return total, unlocks
}

// gappedDependents counts, for each gapped skill S, the distinct other gapped
// skills that list S as a direct prerequisite.
func (e *Engine) gappedDependents(g *skillgraph.Graph, calc *calculation) map[string]int {
	sets := make(map[string]map[string]bool)
	for _, r := range calc.gaps {
		for n := range g.Neighbors(r.skill.ID, skillgraph.Incoming) {
			if n.Kind != domain.RelationPrerequisite || n.SkillID == r.skill.ID || !calc.isGapped(n.SkillID) {
				continue
			}
			if sets[n.SkillID] == nil {
				sets[n.SkillID] = make(map[string]bool)
			}
			sets[n.SkillID][r.skill.ID] = true
		}
	}

	counts := make(map[string]int, len(sets))
	for id, set := range sets {
		counts[id] = len(set)
	}
	return counts
}

// explain renders the levels, gap and unlocked skills for a gap item
func explain(g *skillgraph.Graph, r record, imp *impact) string {
	var b strings.Builder

	if r.current == 0 {
		fmt.Fprintf(&b, "Requires level %d, not yet started (gap of %d).", r.required, r.size())
	} else {
		fmt.Fprintf(&b, "Requires level %d, currently at %d (gap of %d).", r.required, r.current, r.size())
	}

	if imp == nil || len(imp.unlocks) == 0 {
		b.WriteString(" No other required skills depend on it.")
		return b.String()
	}

	names := make([]string, 0, len(imp.unlocks))
	for _, id := range imp.unlocks {
		names = append(names, displayName(g, id))
	}
	noun := "skills"
	if len(names) == 1 {
		noun = "skill"
	}
	fmt.Fprintf(&b, " Unlocks %d other required %s: %s.", len(names), noun, strings.Join(names, ", "))

	return b.String()
}

// displayName falls back to the ID for skills without a name
func displayName(g *skillgraph.Graph, id string) string {
	if s, ok := g.Skill(id); ok && s.Name != "" {
		return s.Name
	}
	return id
}
