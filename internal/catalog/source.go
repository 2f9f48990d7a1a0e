// Package catalog loads the skill catalog (skills, relations and named role
// profiles) from a backing source and keeps the in-memory graph fresh.
package catalog

import (
	"context"
	"maps"
	"slices"

	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

// Snapshot is the raw catalog as read from a source
type Snapshot struct {
	Skills    []domain.Skill            `json:"skills" yaml:"skills"`
	Relations []domain.SkillRelation    `json:"relations" yaml:"relations"`
	Roles     map[string]map[string]int `json:"roles,omitempty" yaml:"roles,omitempty"` // role -> skill ID -> required level
}

// Source supplies catalog snapshots
type Source interface {
	// Name identifies the source in logs and status output
	Name() string
	// Load reads a complete snapshot
	Load(ctx context.Context) (*Snapshot, error)
}

// Build validates the snapshot and produces the traversal graph. Role
// profiles must reference known skills with non-negative levels.
func (s *Snapshot) Build() (*skillgraph.Graph, error) {
	g, err := skillgraph.Load(s.Skills, s.Relations)
	if err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	for _, role := range slices.Sorted(maps.Keys(s.Roles)) {
		if role == "" {
			verr.Add("role with empty name")
		}
		reqs := s.Roles[role]
		for _, id := range slices.Sorted(maps.Keys(reqs)) {
			if !g.Has(id) {
				verr.Add("role %q requires unknown skill %q", role, id)
			}
			if reqs[id] < 0 {
				verr.Add("role %q requires negative level %d for %q", role, reqs[id], id)
			}
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return g, nil
}

// addRequirement records one role requirement, creating the role as needed
func (s *Snapshot) addRequirement(role, skillID string, level int) {
	if s.Roles == nil {
		s.Roles = make(map[string]map[string]int)
	}
	if s.Roles[role] == nil {
		s.Roles[role] = make(map[string]int)
	}
	s.Roles[role][skillID] = level
}
