package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

func TestFileSource_LoadYAML(t *testing.T) {
	src := NewFileSource(filepath.Join("testdata", "catalog.yaml"))
	assert.Equal(t, "file:testdata/catalog.yaml", src.Name())

	snap, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Skills, 6)
	assert.Len(t, snap.Relations, 5)
	assert.Equal(t, 2.0, snap.Skills[1].Difficulty)
	assert.Equal(t, domain.RelationBuildsOn, snap.Relations[1].Kind)
	assert.Equal(t, map[string]int{"go": 4, "concurrency": 3, "grpc": 3, "communication": 3}, snap.Roles["backend"])

	g, err := snap.Build()
	require.NoError(t, err)
	assert.Equal(t, 6, g.Len())
	assert.Empty(t, g.Warnings())
}

func TestFileSource_LoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	doc := `{
		"skills": [{"id": "sql", "name": "SQL", "category": "language"}],
		"relations": [],
		"roles": {"analyst": {"sql": 3}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	snap, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SQL", snap.Skills[0].Name)
	assert.Equal(t, 3, snap.Roles["analyst"]["sql"])
}

func TestFileSource_Errors(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml")).Load(context.Background())
	require.Error(t, err)

	_, err = Parse([]byte("skills: [unclosed"), ".yaml")
	require.Error(t, err)

	_, err = Parse([]byte("{"), ".json")
	require.Error(t, err)
}

func TestSnapshot_BuildRejectsBadRoles(t *testing.T) {
	snap := &Snapshot{
		Skills: []domain.Skill{{ID: "go", Name: "Go"}},
		Roles: map[string]map[string]int{
			"backend": {"go": 3, "rust": 2},
			"broken":  {"go": -1},
		},
	}

	_, err := snap.Build()
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), `role "backend" requires unknown skill "rust"`)
	assert.Contains(t, err.Error(), `negative level -1`)
}

func TestSnapshot_BuildPropagatesGraphErrors(t *testing.T) {
	snap := &Snapshot{
		Skills:    []domain.Skill{{ID: "go"}},
		Relations: []domain.SkillRelation{{From: "go", To: "nope", Kind: domain.RelationPrerequisite, Strength: 1}},
	}
	_, err := snap.Build()
	assert.True(t, domain.IsValidation(err))
}

// fakeSource returns queued results in order, repeating the last one
type fakeSource struct {
	calls   atomic.Int32
	results []func() (*Snapshot, error)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(ctx context.Context) (*Snapshot, error) {
	n := int(f.calls.Add(1)) - 1
	if n >= len(f.results) {
		n = len(f.results) - 1
	}
	return f.results[n]()
}

func okSnapshot(ids ...string) func() (*Snapshot, error) {
	return func() (*Snapshot, error) {
		snap := &Snapshot{Roles: map[string]map[string]int{"role": {}}}
		for _, id := range ids {
			snap.Skills = append(snap.Skills, domain.Skill{ID: id, Name: id})
		}
		return snap, nil
	}
}

func failing(msg string) func() (*Snapshot, error) {
	return func() (*Snapshot, error) { return nil, errors.New(msg) }
}

func fastConfig() RefresherConfig {
	return RefresherConfig{
		MaxAttempts:      3,
		InitialDelay:     time.Millisecond,
		MaxDelay:         2 * time.Millisecond,
		FailureThreshold: 100,
		OpenTimeout:      time.Second,
	}
}

func TestRefresher_RefreshPublishes(t *testing.T) {
	holder := skillgraph.NewHolder()
	r := NewRefresher(&fakeSource{results: []func() (*Snapshot, error){okSnapshot("a", "b")}}, holder, fastConfig())

	snap, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Revision)
	assert.Equal(t, "fake", snap.Source)

	cur, err := holder.Current()
	require.NoError(t, err)
	assert.Same(t, snap, cur)

	st := r.Status()
	assert.Equal(t, 2, st.Skills)
	assert.Equal(t, 1, st.Roles)
	assert.Empty(t, st.LastError)
	assert.Equal(t, "closed", st.BreakerState)
}

func TestRefresher_RetriesTransientFailures(t *testing.T) {
	src := &fakeSource{results: []func() (*Snapshot, error){
		failing("connection reset"),
		okSnapshot("a"),
	}}
	r := NewRefresher(src, skillgraph.NewHolder(), fastConfig())

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRefresher_FailureKeepsPreviousSnapshot(t *testing.T) {
	holder := skillgraph.NewHolder()
	src := &fakeSource{results: []func() (*Snapshot, error){
		okSnapshot("a"),
		failing("database down"),
	}}
	r := NewRefresher(src, holder, fastConfig())

	first, err := r.Refresh(context.Background())
	require.NoError(t, err)

	_, err = r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog from fake")

	cur, err := holder.Current()
	require.NoError(t, err)
	assert.Same(t, first, cur)
	assert.NotEmpty(t, r.Status().LastError)
}

func TestRefresher_ValidationNotRetried(t *testing.T) {
	src := &fakeSource{results: []func() (*Snapshot, error){
		func() (*Snapshot, error) { return nil, domain.NewValidationError("bad row") },
	}}
	r := NewRefresher(src, skillgraph.NewHolder(), fastConfig())

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRefresher_MalformedCatalogRejected(t *testing.T) {
	holder := skillgraph.NewHolder()
	src := &fakeSource{results: []func() (*Snapshot, error){
		func() (*Snapshot, error) {
			return &Snapshot{
				Skills:    []domain.Skill{{ID: "a"}},
				Relations: []domain.SkillRelation{{From: "a", To: "ghost", Kind: domain.RelationPrerequisite, Strength: 1}},
			}, nil
		},
	}}
	r := NewRefresher(src, holder, fastConfig())

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = holder.Current()
	assert.ErrorIs(t, err, domain.ErrSnapshotUnavailable)
}

func TestRefresher_StartStop(t *testing.T) {
	src := &fakeSource{results: []func() (*Snapshot, error){okSnapshot("a")}}
	cfg := fastConfig()
	cfg.Interval = 5 * time.Millisecond
	holder := skillgraph.NewHolder()
	r := NewRefresher(src, holder, cfg)

	r.Start(context.Background())
	r.Start(context.Background()) // second start is a no-op

	require.Eventually(t, func() bool {
		snap, err := holder.Current()
		return err == nil && snap.Revision >= 2
	}, time.Second, 5*time.Millisecond)

	r.Stop()
	calls := src.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, src.calls.Load(), "no refreshes after Stop")

	r.Stop() // idempotent
}

func TestRefresher_StartWithoutIntervalIsNoop(t *testing.T) {
	src := &fakeSource{results: []func() (*Snapshot, error){okSnapshot("a")}}
	r := NewRefresher(src, skillgraph.NewHolder(), fastConfig())

	r.Start(context.Background())
	r.Stop()
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(domain.NewValidationError("x")))
	assert.True(t, isRetryable(errors.New("timeout talking to db")))
}
