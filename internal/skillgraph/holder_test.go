package skillgraph

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

func TestHolder_EmptyReturnsUnavailable(t *testing.T) {
	h := NewHolder()
	_, err := h.Current()
	assert.True(t, errors.Is(err, domain.ErrSnapshotUnavailable))
}

func TestHolder_SwapPublishesNewRevision(t *testing.T) {
	h := NewHolder()
	g1, err := Load(testSkills("a"), nil)
	require.NoError(t, err)
	g2, err := Load(testSkills("a", "b"), nil)
	require.NoError(t, err)

	first := h.Swap(g1, nil, "test")
	second := h.Swap(g2, nil, "test")

	assert.Equal(t, uint64(1), first.Revision)
	assert.Equal(t, uint64(2), second.Revision)

	cur, err := h.Current()
	require.NoError(t, err)
	assert.Same(t, second, cur)
	assert.Equal(t, 1, first.Graph.Len(), "earlier snapshot stays intact")
}

func TestSnapshot_RoleRequirementsAreCopies(t *testing.T) {
	h := NewHolder()
	g, err := Load(testSkills("go"), nil)
	require.NoError(t, err)

	roles := map[string]map[string]int{"backend": {"go": 4}}
	snap := h.Swap(g, roles, "test")

	roles["backend"]["go"] = 1 // caller mutation after swap

	reqs, ok := snap.RoleRequirements("backend")
	require.True(t, ok)
	assert.Equal(t, 4, reqs["go"])

	reqs["go"] = 0
	again, _ := snap.RoleRequirements("backend")
	assert.Equal(t, 4, again["go"])

	_, ok = snap.RoleRequirements("frontend")
	assert.False(t, ok)
	assert.Equal(t, []string{"backend"}, snap.Roles())
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	h := NewHolder()
	g, err := Load(testSkills("a", "b"), []domain.SkillRelation{
		{From: "a", To: "b", Kind: domain.RelationPrerequisite, Strength: 1},
	})
	require.NoError(t, err)
	h.Swap(g, nil, "test")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap, err := h.Current()
				if err != nil {
					t.Error(err)
					return
				}
				for range snap.Graph.Neighbors("a", Outgoing) {
				}
				if j%25 == 0 {
					h.Swap(g, nil, "test")
				}
			}
		}()
	}
	wg.Wait()
}
