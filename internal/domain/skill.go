package domain

// DefaultMaxLevel is the top of the proficiency scale when no policy overrides it.
const DefaultMaxLevel = 5

// Category groups skills by domain (e.g. "language", "tooling", "soft_skill").
type Category string

const (
	CategoryLanguage  Category = "language"
	CategoryFramework Category = "framework"
	CategoryTooling   Category = "tooling"
	CategoryPlatform  Category = "platform"
	CategorySoftSkill Category = "soft_skill"
	CategoryDomain    Category = "domain"
)

// Skill is a catalog entry. It is immutable for the duration of an analysis run.
type Skill struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Category   Category `json:"category" yaml:"category"`
	Difficulty float64  `json:"difficulty,omitempty" yaml:"difficulty,omitempty"` // intrinsic weight, 1.0 when unset
}

// DifficultyWeight returns the skill's difficulty, defaulting to 1.0
func (s Skill) DifficultyWeight() float64 {
	if s.Difficulty <= 0 {
		return 1.0
	}
	return s.Difficulty
}

// RelationKind describes how two skills relate
type RelationKind string

const (
	// RelationPrerequisite means From must be learned before To.
	RelationPrerequisite RelationKind = "prerequisite"
	// RelationBuildsOn means To extends the knowledge of From.
	RelationBuildsOn RelationKind = "builds_on"
	// RelationRelated is a soft association with no ordering.
	RelationRelated RelationKind = "related"
)

// Valid reports whether k is a known relation kind
func (k RelationKind) Valid() bool {
	switch k {
	case RelationPrerequisite, RelationBuildsOn, RelationRelated:
		return true
	}
	return false
}

// Propagates reports whether importance flows along edges of this kind
func (k RelationKind) Propagates() bool {
	return k == RelationPrerequisite || k == RelationBuildsOn
}

// SkillRelation is a directed edge between two skills.
type SkillRelation struct {
	From     string       `json:"from" yaml:"from"`
	To       string       `json:"to" yaml:"to"`
	Kind     RelationKind `json:"kind" yaml:"kind"`
	Strength float64      `json:"strength" yaml:"strength"` // 0.0 - 1.0
}
