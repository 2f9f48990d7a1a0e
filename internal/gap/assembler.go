package gap

import (
	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

// buildItems turns gap records into unranked report items
func (e *Engine) buildItems(g *skillgraph.Graph, calc *calculation, impacts map[string]*impact, enrichments map[string]domain.Enrichment) []domain.GapItem {
	items := make([]domain.GapItem, 0, len(calc.gaps))
	for _, r := range calc.gaps {
		imp := impacts[r.skill.ID]
		item := domain.GapItem{
			SkillID:            r.skill.ID,
			SkillName:          displayName(g, r.skill.ID),
			CurrentLevel:       r.current,
			TargetLevel:        r.required,
			GapSize:            r.size(),
			Explanation:        explain(g, r, imp),
			RecommendedActions: e.policy.actions(r.skill, r.size()),
			EstimatedTimeWeeks: e.policy.estimateWeeks(r.skill, r.size()),
		}
		if imp != nil {
			item.Impact = imp.score
		}
		if en, ok := enrichments[r.skill.ID]; ok {
			item.Resources = en.Resources
			item.Evidence = en.Evidence
		}
		items = append(items, item)
	}
	return items
}

// assemble packages the computed parts into the final report
func assemble(in Input, score int, gaps []domain.GapItem, strengths []string, recommendation *string, diag *domain.Diagnostics) *domain.GapsData {
	if strengths == nil {
		strengths = []string{}
	}
	report := &domain.GapsData{
		AssessmentID:          in.AssessmentID,
		TargetRole:            in.TargetRole,
		ReadinessScore:        score,
		Gaps:                  gaps,
		Strengths:             strengths,
		OverallRecommendation: recommendation,
	}
	if !diag.Empty() {
		report.Diagnostics = diag
	}
	return report
}
