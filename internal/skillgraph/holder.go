package skillgraph

import (
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// Snapshot is one immutable generation of the catalog: the graph plus the
// named role profiles (role -> skill ID -> required level).
type Snapshot struct {
	Graph    *Graph
	Revision uint64
	LoadedAt time.Time
	Source   string

	roles map[string]map[string]int
}

// RoleRequirements returns a copy of the requirement set for a named role
func (s *Snapshot) RoleRequirements(role string) (map[string]int, bool) {
	reqs, ok := s.roles[role]
	if !ok {
		return nil, false
	}
	return maps.Clone(reqs), true
}

// Roles returns the role names in the snapshot, sorted
func (s *Snapshot) Roles() []string {
	return slices.Sorted(maps.Keys(s.roles))
}

// Holder publishes the current snapshot to concurrent readers. Refreshes
// replace the whole snapshot; nothing already handed out is mutated.
type Holder struct {
	current  atomic.Pointer[Snapshot]
	revision atomic.Uint64
}

// NewHolder creates an empty holder
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the active snapshot
func (h *Holder) Current() (*Snapshot, error) {
	snap := h.current.Load()
	if snap == nil {
		return nil, domain.ErrSnapshotUnavailable
	}
	return snap, nil
}

// Swap publishes a new generation and returns it
func (h *Holder) Swap(g *Graph, roles map[string]map[string]int, source string) *Snapshot {
	cloned := make(map[string]map[string]int, len(roles))
	for name, reqs := range roles {
		cloned[name] = maps.Clone(reqs)
	}

	snap := &Snapshot{
		Graph:    g,
		Revision: h.revision.Add(1),
		LoadedAt: time.Now(),
		Source:   source,
		roles:    cloned,
	}
	h.current.Store(snap)
	return snap
}
