package gap

import (
	"math"
	"strings"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// ceilEpsilon absorbs float noise so 9.000000000000002 weeks stays 9
const ceilEpsilon = 1e-9

// estimateWeeks returns the whole weeks needed to close a gap, at least 1
func (p Policy) estimateWeeks(s domain.Skill, gapSize int) int {
	raw := float64(gapSize) * p.baseWeeks(s.Category) * p.difficultyMultiplier(s.DifficultyWeight())
	weeks := int(math.Ceil(raw - ceilEpsilon))
	if weeks < 1 {
		return 1
	}
	return weeks
}

// actions fills the action templates for the skill's category and gap bucket
func (p Policy) actions(s domain.Skill, gapSize int) []string {
	name := s.Name
	if name == "" {
		name = s.ID
	}

	templates := p.ActionTemplates[s.Category][p.bucket(gapSize)]
	if len(templates) == 0 {
		return []string{"Practice and seek mentorship in " + name}
	}

	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, strings.ReplaceAll(t, "{skill}", name))
	}
	return out
}
