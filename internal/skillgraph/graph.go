// Package skillgraph holds the in-memory skill catalog and the directed
// relations between skills. A Graph is immutable once loaded; refreshes
// build a new Graph and swap it in through a Holder.
package skillgraph

import (
	"iter"
	"math"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// Direction selects which edge index Neighbors walks
type Direction int

const (
	// Outgoing follows edges from the skill to the skills it relates to.
	Outgoing Direction = iota
	// Incoming follows edges pointing at the skill.
	Incoming
)

func (d Direction) String() string {
	if d == Incoming {
		return "incoming"
	}
	return "outgoing"
}

// Neighbor is one end of an edge as seen from the skill being queried
type Neighbor struct {
	SkillID  string
	Kind     domain.RelationKind
	Strength float64
}

// Graph is an identity-addressed adjacency structure over the skill catalog.
type Graph struct {
	skills    map[string]domain.Skill
	order     []string
	out       map[string][]Neighbor
	in        map[string][]Neighbor
	relations int
	warnings  []domain.GraphIntegrityWarning
}

// Load validates the catalog and builds outgoing and incoming indices.
// Any malformed skill or relation fails the whole load with a
// *domain.ValidationError. Cycles are not errors; they are recorded as
// warnings.
func Load(skills []domain.Skill, relations []domain.SkillRelation) (*Graph, error) {
	g := &Graph{
		skills: make(map[string]domain.Skill, len(skills)),
		order:  make([]string, 0, len(skills)),
		out:    make(map[string][]Neighbor),
		in:     make(map[string][]Neighbor),
	}

	verr := &domain.ValidationError{}

	for i, s := range skills {
		if s.ID == "" {
			verr.Add("skill #%d has an empty id", i)
			continue
		}
		if _, dup := g.skills[s.ID]; dup {
			verr.Add("duplicate skill id %q", s.ID)
			continue
		}
		g.skills[s.ID] = s
		g.order = append(g.order, s.ID)
	}

	for i, r := range relations {
		if !g.validRelation(i, r, verr) {
			continue
		}
		g.out[r.From] = append(g.out[r.From], Neighbor{SkillID: r.To, Kind: r.Kind, Strength: r.Strength})
		g.in[r.To] = append(g.in[r.To], Neighbor{SkillID: r.From, Kind: r.Kind, Strength: r.Strength})
		g.relations++
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	g.warnings = detectCycles(g)
	return g, nil
}

func (g *Graph) validRelation(i int, r domain.SkillRelation, verr *domain.ValidationError) bool {
	ok := true
	if _, known := g.skills[r.From]; !known {
		verr.Add("relation #%d references unknown skill %q", i, r.From)
		ok = false
	}
	if _, known := g.skills[r.To]; !known {
		verr.Add("relation #%d references unknown skill %q", i, r.To)
		ok = false
	}
	if r.From == r.To && r.From != "" {
		verr.Add("relation #%d is a self-loop on %q", i, r.From)
		ok = false
	}
	if !r.Kind.Valid() {
		verr.Add("relation #%d has unknown kind %q", i, r.Kind)
		ok = false
	}
	if math.IsNaN(r.Strength) || r.Strength < 0 || r.Strength > 1 {
		verr.Add("relation #%d strength %v outside [0,1]", i, r.Strength)
		ok = false
	}
	return ok
}

// Skill returns the catalog entry for id
func (g *Graph) Skill(id string) (domain.Skill, bool) {
	s, ok := g.skills[id]
	return s, ok
}

// Has reports whether id is in the catalog
func (g *Graph) Has(id string) bool {
	_, ok := g.skills[id]
	return ok
}

// Len returns the number of skills
func (g *Graph) Len() int {
	return len(g.order)
}

// RelationCount returns the number of edges
func (g *Graph) RelationCount() int {
	return g.relations
}

// Skills returns a copy of the catalog in load order
func (g *Graph) Skills() []domain.Skill {
	out := make([]domain.Skill, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.skills[id])
	}
	return out
}

// Neighbors yields the edges touching id in the given direction, in the order
// the relations were loaded. The sequence can be ranged over repeatedly.
func (g *Graph) Neighbors(id string, dir Direction) iter.Seq[Neighbor] {
	index := g.out
	if dir == Incoming {
		index = g.in
	}
	return func(yield func(Neighbor) bool) {
		for _, n := range index[id] {
			if !yield(n) {
				return
			}
		}
	}
}

// Warnings returns the integrity warnings found at load time
func (g *Graph) Warnings() []domain.GraphIntegrityWarning {
	out := make([]domain.GraphIntegrityWarning, len(g.warnings))
	copy(out, g.warnings)
	return out
}
