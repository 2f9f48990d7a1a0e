package gap

import "math"

// readiness scores how close the user is to the requirement set, 0-100.
// Gaps are weighted by 1 + impact so high-leverage gaps cost more.
func (e *Engine) readiness(calc *calculation, impacts map[string]*impact) int {
	if len(calc.required) == 0 {
		return 100
	}

	maxLevel := float64(e.policy.MaxLevel)
	missing := 0.0
	total := maxLevel * float64(len(calc.met))

	for _, r := range calc.gaps {
		w := 1.0
		if imp, ok := impacts[r.skill.ID]; ok {
			w += imp.score
		}
		missing += float64(r.size()) * w
		total += maxLevel * w
	}

	if total == 0 {
		return 100
	}

	score := 100 * (1 - missing/total)
	return int(math.Round(math.Max(0, math.Min(100, score))))
}
