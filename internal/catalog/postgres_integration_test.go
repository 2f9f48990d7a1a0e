//go:build integration

package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/felixgeelhaar/skillgap/internal/catalog"
	"github.com/felixgeelhaar/skillgap/internal/domain"
)

const postgresSchema = `
CREATE TABLE skills (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    category   TEXT NOT NULL,
    difficulty DOUBLE PRECISION
);
CREATE TABLE skill_relations (
    from_skill TEXT NOT NULL REFERENCES skills(id),
    to_skill   TEXT NOT NULL REFERENCES skills(id),
    kind       TEXT NOT NULL,
    strength   DOUBLE PRECISION NOT NULL
);
CREATE TABLE role_requirements (
    role           TEXT NOT NULL,
    skill_id       TEXT NOT NULL REFERENCES skills(id),
    required_level INTEGER NOT NULL
);
INSERT INTO skills VALUES
    ('go', 'Go', 'language', NULL),
    ('grpc', 'gRPC', 'framework', 2.0),
    ('kubernetes', 'Kubernetes', 'platform', 1.5);
INSERT INTO skill_relations VALUES
    ('go', 'grpc', 'prerequisite', 0.8),
    ('grpc', 'kubernetes', 'related', 0.2);
INSERT INTO role_requirements VALUES
    ('backend', 'go', 4),
    ('backend', 'grpc', 3),
    ('platform', 'kubernetes', 4);
`

// setupPostgres starts a Postgres container and returns its DSN
func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("skillgap"),
		postgres.WithUsername("skillgap"),
		postgres.WithPassword("skillgap"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestIntegration_PostgresSource_Load(t *testing.T) {
	dsn := setupPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := catalog.ConnectPostgres(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, postgresSchema)
	require.NoError(t, err)

	src := catalog.NewPostgresSource(pool)
	assert.Equal(t, "postgres", src.Name())

	snap, err := src.Load(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Skills, 3)
	assert.Equal(t, "go", snap.Skills[0].ID)
	assert.Equal(t, 1.0, snap.Skills[0].Difficulty, "NULL difficulty defaults to 1.0")
	assert.Equal(t, domain.CategoryFramework, snap.Skills[1].Category)

	require.Len(t, snap.Relations, 2)
	assert.Equal(t, domain.SkillRelation{From: "go", To: "grpc", Kind: domain.RelationPrerequisite, Strength: 0.8}, snap.Relations[0])

	assert.Equal(t, map[string]map[string]int{
		"backend":  {"go": 4, "grpc": 3},
		"platform": {"kubernetes": 4},
	}, snap.Roles)

	_, err = snap.Build()
	require.NoError(t, err)
}

func TestIntegration_ConnectPostgres_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := catalog.ConnectPostgres(ctx, "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
	assert.Error(t, err)
}
