package domain

import "encoding/json"

// Enrichment is externally supplied data attached to a gap item.
// The engine threads it through without inspecting it.
type Enrichment struct {
	Resources json.RawMessage `json:"resources,omitempty"`
	Evidence  json.RawMessage `json:"evidence,omitempty"`
}

// GapItem is one skill where the required level exceeds the current level.
type GapItem struct {
	SkillID            string          `json:"skill_id"`
	SkillName          string          `json:"skill_name"`
	CurrentLevel       int             `json:"current_level"`
	TargetLevel        int             `json:"target_level"`
	GapSize            int             `json:"gap_size"`
	Impact             float64         `json:"impact"` // 0.0 - 1.0, normalized per run
	Explanation        string          `json:"explanation"`
	RecommendedActions []string        `json:"recommended_actions"`
	EstimatedTimeWeeks int             `json:"estimated_time_weeks"`
	Priority           int             `json:"priority"`
	Resources          json.RawMessage `json:"resources,omitempty"`
	Evidence           json.RawMessage `json:"evidence,omitempty"`
}

// GapsData is the final gap report for one assessment.
type GapsData struct {
	AssessmentID          string       `json:"assessment_id"`
	TargetRole            *string      `json:"target_role,omitempty"`
	ReadinessScore        int          `json:"readiness_score"`
	Gaps                  []GapItem    `json:"gaps"`
	Strengths             []string     `json:"strengths"`
	OverallRecommendation *string      `json:"overall_recommendation"`
	Diagnostics           *Diagnostics `json:"diagnostics,omitempty"`
}

// Degenerate input cases. These are recorded, never returned as errors.
const (
	DegenerateNoRequirements = "no_requirements"
	DegenerateNoLevels       = "no_levels"
)

// Diagnostics records non-fatal conditions observed during a run.
type Diagnostics struct {
	DegenerateCases []string `json:"degenerate_cases,omitempty"`
	GraphWarnings   []string `json:"graph_warnings,omitempty"`
}

// Empty reports whether nothing was recorded
func (d *Diagnostics) Empty() bool {
	return d == nil || (len(d.DegenerateCases) == 0 && len(d.GraphWarnings) == 0)
}
