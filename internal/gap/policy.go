package gap

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// GapBucket coarsely sizes a gap for action template lookup
type GapBucket string

const (
	BucketSmall  GapBucket = "small"
	BucketMedium GapBucket = "medium"
	BucketLarge  GapBucket = "large"
)

// Policy is the scoring configuration. Every table here is data, loaded from
// the config file, so policy changes never need a code change.
type Policy struct {
	MaxLevel           int                                           `yaml:"max_level" json:"max_level"`
	DecayFactor        float64                                       `yaml:"decay_factor" json:"decay_factor"`
	MaxDepth           int                                           `yaml:"max_depth" json:"max_depth"`
	PrerequisiteWeight float64                                       `yaml:"prerequisite_weight" json:"prerequisite_weight"`
	NotableThreshold   int                                           `yaml:"notable_threshold" json:"notable_threshold"`
	DefaultBaseWeeks   float64                                       `yaml:"default_base_weeks" json:"default_base_weeks"`
	BaseWeeks          map[domain.Category]float64                   `yaml:"base_weeks" json:"base_weeks"`
	DifficultyBands    []DifficultyBand                              `yaml:"difficulty_bands" json:"difficulty_bands"`
	GapBuckets         GapBuckets                                    `yaml:"gap_buckets" json:"gap_buckets"`
	ActionTemplates    map[domain.Category]map[GapBucket][]string    `yaml:"action_templates" json:"action_templates"`
	Readiness          ReadinessThresholds                           `yaml:"readiness" json:"readiness"`
}

// DifficultyBand maps difficulty weights up to MaxWeight onto a multiplier.
// Bands are checked in order; the last band also catches heavier skills.
type DifficultyBand struct {
	MaxWeight  float64 `yaml:"max_weight" json:"max_weight"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// GapBuckets sets the upper bounds for small and medium gaps
type GapBuckets struct {
	SmallMax  int `yaml:"small_max" json:"small_max"`
	MediumMax int `yaml:"medium_max" json:"medium_max"`
}

// ReadinessThresholds picks the narrative bucket for a readiness score
type ReadinessThresholds struct {
	WellPositioned int `yaml:"well_positioned" json:"well_positioned"`
	Close          int `yaml:"close" json:"close"`
}

// DefaultPolicy returns the stock scoring tables
func DefaultPolicy() Policy {
	return Policy{
		MaxLevel:           domain.DefaultMaxLevel,
		DecayFactor:        0.5,
		MaxDepth:           3,
		PrerequisiteWeight: 0.5,
		NotableThreshold:   4,
		DefaultBaseWeeks:   2,
		BaseWeeks: map[domain.Category]float64{
			domain.CategoryLanguage:  2,
			domain.CategoryFramework: 2,
			domain.CategoryTooling:   1,
			domain.CategoryPlatform:  2,
			domain.CategorySoftSkill: 3,
			domain.CategoryDomain:    3,
		},
		DifficultyBands: []DifficultyBand{
			{MaxWeight: 1.0, Multiplier: 1.0},
			{MaxWeight: 2.0, Multiplier: 1.5},
			{MaxWeight: 3.0, Multiplier: 2.0},
			{MaxWeight: 5.0, Multiplier: 2.5},
		},
		GapBuckets: GapBuckets{SmallMax: 1, MediumMax: 3},
		ActionTemplates: map[domain.Category]map[GapBucket][]string{
			domain.CategoryLanguage: {
				BucketSmall: {
					"Work through intermediate {skill} exercises",
					"Review idiomatic {skill} code in a well-known open source project",
				},
				BucketMedium: {
					"Complete a structured {skill} course",
					"Build a small service end to end in {skill}",
					"Ask for code review from an experienced {skill} developer",
				},
				BucketLarge: {
					"Start with the {skill} fundamentals and language tour",
					"Build three progressively larger projects in {skill}",
					"Pair regularly with a {skill} mentor",
					"Contribute a change to an open source {skill} project",
				},
			},
			domain.CategoryFramework: {
				BucketSmall: {
					"Read the {skill} documentation on advanced features",
				},
				BucketMedium: {
					"Follow the official {skill} tutorial",
					"Rebuild an existing feature using {skill}",
				},
				BucketLarge: {
					"Learn the prerequisites {skill} builds on",
					"Follow the official {skill} tutorial",
					"Ship a side project that depends on {skill}",
				},
			},
			domain.CategoryTooling: {
				BucketSmall: {
					"Adopt {skill} in your daily workflow",
				},
				BucketMedium: {
					"Automate a routine task with {skill}",
					"Read the {skill} reference for features you have not used",
				},
				BucketLarge: {
					"Complete a hands-on {skill} lab",
					"Automate a routine task with {skill}",
					"Set up {skill} for a team project",
				},
			},
			domain.CategorySoftSkill: {
				BucketSmall: {
					"Ask a peer for feedback on your {skill}",
				},
				BucketMedium: {
					"Pick one {skill} goal per sprint and review it in 1:1s",
					"Read a recommended book on {skill}",
				},
				BucketLarge: {
					"Find a mentor who is strong in {skill}",
					"Take on a stretch assignment that exercises {skill}",
					"Review progress on {skill} monthly with your manager",
				},
			},
		},
		Readiness: ReadinessThresholds{WellPositioned: 85, Close: 50},
	}
}

// Validate checks that the tables are usable
func (p Policy) Validate() error {
	var errs []error

	if p.MaxLevel <= 0 {
		errs = append(errs, fmt.Errorf("max_level must be positive, got %d", p.MaxLevel))
	}
	if p.DecayFactor <= 0 || p.DecayFactor > 1 {
		errs = append(errs, fmt.Errorf("decay_factor must be in (0,1], got %v", p.DecayFactor))
	}
	if p.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be at least 1, got %d", p.MaxDepth))
	}
	if p.PrerequisiteWeight < 0 {
		errs = append(errs, fmt.Errorf("prerequisite_weight must not be negative, got %v", p.PrerequisiteWeight))
	}
	if p.NotableThreshold < 1 || p.NotableThreshold > p.MaxLevel {
		errs = append(errs, fmt.Errorf("notable_threshold must be in [1,%d], got %d", p.MaxLevel, p.NotableThreshold))
	}
	if p.DefaultBaseWeeks <= 0 {
		errs = append(errs, fmt.Errorf("default_base_weeks must be positive, got %v", p.DefaultBaseWeeks))
	}
	for category, weeks := range p.BaseWeeks {
		if weeks <= 0 {
			errs = append(errs, fmt.Errorf("base_weeks[%s] must be positive, got %v", category, weeks))
		}
	}
	for i, band := range p.DifficultyBands {
		if band.Multiplier <= 0 {
			errs = append(errs, fmt.Errorf("difficulty_bands[%d] multiplier must be positive", i))
		}
		if i > 0 && band.MaxWeight <= p.DifficultyBands[i-1].MaxWeight {
			errs = append(errs, fmt.Errorf("difficulty_bands must be ordered by max_weight"))
		}
	}
	if p.GapBuckets.SmallMax < 1 || p.GapBuckets.MediumMax < p.GapBuckets.SmallMax {
		errs = append(errs, fmt.Errorf("gap_buckets need 1 <= small_max <= medium_max"))
	}
	if p.Readiness.Close < 0 || p.Readiness.Close > p.Readiness.WellPositioned || p.Readiness.WellPositioned > 100 {
		errs = append(errs, fmt.Errorf("readiness thresholds need 0 <= close <= well_positioned <= 100"))
	}

	return errors.Join(errs...)
}

// baseWeeks returns the per-level weeks for a category
func (p Policy) baseWeeks(c domain.Category) float64 {
	if w, ok := p.BaseWeeks[c]; ok {
		return w
	}
	return p.DefaultBaseWeeks
}

// difficultyMultiplier maps a difficulty weight onto its band multiplier
func (p Policy) difficultyMultiplier(weight float64) float64 {
	if len(p.DifficultyBands) == 0 {
		return 1.0
	}
	for _, band := range p.DifficultyBands {
		if weight <= band.MaxWeight {
			return band.Multiplier
		}
	}
	return p.DifficultyBands[len(p.DifficultyBands)-1].Multiplier
}

// bucket sizes a gap
func (p Policy) bucket(gapSize int) GapBucket {
	switch {
	case gapSize <= p.GapBuckets.SmallMax:
		return BucketSmall
	case gapSize <= p.GapBuckets.MediumMax:
		return BucketMedium
	default:
		return BucketLarge
	}
}
