package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// PostgresSource reads the catalog from the skills, skill_relations and
// role_requirements tables.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a source over an existing pool
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// ConnectPostgres opens a pool and verifies it
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Name implements Source
func (s *PostgresSource) Name() string {
	return "postgres"
}

// Load implements Source
func (s *PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := s.loadSkills(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadRelations(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadRoles(ctx, snap); err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *PostgresSource) loadSkills(ctx context.Context, snap *Snapshot) error {
	query := `
		SELECT id, name, category, COALESCE(difficulty, 1.0)
		FROM skills
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sk domain.Skill
		var category string
		if err := rows.Scan(&sk.ID, &sk.Name, &category, &sk.Difficulty); err != nil {
			return fmt.Errorf("scan skill: %w", err)
		}
		sk.Category = domain.Category(category)
		snap.Skills = append(snap.Skills, sk)
	}
	return rows.Err()
}

func (s *PostgresSource) loadRelations(ctx context.Context, snap *Snapshot) error {
	query := `
		SELECT from_skill, to_skill, kind, strength
		FROM skill_relations
		ORDER BY from_skill, to_skill, kind
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query skill relations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rel domain.SkillRelation
		var kind string
		if err := rows.Scan(&rel.From, &rel.To, &kind, &rel.Strength); err != nil {
			return fmt.Errorf("scan skill relation: %w", err)
		}
		rel.Kind = domain.RelationKind(kind)
		snap.Relations = append(snap.Relations, rel)
	}
	return rows.Err()
}

func (s *PostgresSource) loadRoles(ctx context.Context, snap *Snapshot) error {
	query := `
		SELECT role, skill_id, required_level
		FROM role_requirements
		ORDER BY role, skill_id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query role requirements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role, skillID string
		var level int
		if err := rows.Scan(&role, &skillID, &level); err != nil {
			return fmt.Errorf("scan role requirement: %w", err)
		}
		snap.addRequirement(role, skillID, level)
	}
	return rows.Err()
}
