package catalog

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

func relationRecord(kind string, strength any) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"from", "to", "kind", "strength"},
		Values: []any{"go", "grpc", kind, strength},
	}
}

func TestRelationFromRecord(t *testing.T) {
	tests := []struct {
		name     string
		rec      *neo4j.Record
		wantKind domain.RelationKind
		want     float64
	}{
		{"float strength", relationRecord("PREREQUISITE_OF", 0.8), domain.RelationPrerequisite, 0.8},
		{"integer strength", relationRecord("BUILDS_ON", int64(1)), domain.RelationBuildsOn, 1},
		{"related edge", relationRecord("RELATED", 0.2), domain.RelationRelated, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := &domain.ValidationError{}
			rel, ok := relationFromRecord(tt.rec, verr)
			require.True(t, ok)
			require.NoError(t, verr.OrNil())
			assert.Equal(t, "go", rel.From)
			assert.Equal(t, "grpc", rel.To)
			assert.Equal(t, tt.wantKind, rel.Kind)
			assert.Equal(t, tt.want, rel.Strength)
		})
	}
}

func TestRelationFromRecord_MissingStrength(t *testing.T) {
	for name, strength := range map[string]any{"missing": nil, "not numeric": "strong"} {
		t.Run(name, func(t *testing.T) {
			verr := &domain.ValidationError{}
			_, ok := relationFromRecord(relationRecord("PREREQUISITE_OF", strength), verr)
			assert.False(t, ok)

			err := verr.OrNil()
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), "go -[PREREQUISITE_OF]-> grpc has no numeric strength")
		})
	}
}

func TestRecordNumber(t *testing.T) {
	rec := &neo4j.Record{
		Keys:   []string{"level", "difficulty", "name"},
		Values: []any{int64(3), 1.5, "Go"},
	}

	n, ok := recordNumber(rec, "level")
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	n, ok = recordNumber(rec, "difficulty")
	assert.True(t, ok)
	assert.Equal(t, 1.5, n)

	_, ok = recordNumber(rec, "name")
	assert.False(t, ok)
	_, ok = recordNumber(rec, "absent")
	assert.False(t, ok)
}
