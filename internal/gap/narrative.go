package gap

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

const defaultRoleLabel = "the target role"

// compose renders the overall recommendation. It returns nil only when there
// is nothing to say: no gaps and no strengths.
func (e *Engine) compose(score int, gaps []domain.GapItem, strengths []string, role *string, noRequirements bool) *string {
	if len(gaps) == 0 && len(strengths) == 0 {
		return nil
	}

	label := defaultRoleLabel
	if role != nil && strings.TrimSpace(*role) != "" {
		label = *role
	}

	var sentences []string

	switch {
	case noRequirements:
		sentences = append(sentences, fmt.Sprintf("No skill requirements are defined for %s, so there is nothing to close yet.", label))
	case score >= e.policy.Readiness.WellPositioned:
		sentences = append(sentences, fmt.Sprintf("You are well-positioned for %s (readiness %d/100).", label, score))
	case score >= e.policy.Readiness.Close:
		sentences = append(sentences, fmt.Sprintf("You are close to ready for %s (readiness %d/100).", label, score))
	default:
		sentences = append(sentences, fmt.Sprintf("There are significant gaps to close for %s (readiness %d/100).", label, score))
	}

	if len(gaps) > 0 {
		top := gaps[:min(3, len(gaps))]
		names := make([]string, 0, len(top))
		for _, g := range top {
			names = append(names, g.SkillName)
		}
		focus := "Focus first on " + joinNames(names)
		if len(gaps) > len(top) {
			focus += fmt.Sprintf(", then %d more", len(gaps)-len(top))
		}
		sentences = append(sentences, focus+".")
	}

	switch len(strengths) {
	case 0:
	case 1:
		sentences = append(sentences, "You have 1 strength to build on.")
	default:
		sentences = append(sentences, fmt.Sprintf("You have %d strengths to build on.", len(strengths)))
	}

	text := strings.Join(sentences, " ")
	return &text
}

// joinNames renders "a", "a and b" or "a, b and c"
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
