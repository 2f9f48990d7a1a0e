package sqlite

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/felixgeelhaar/skillgap/internal/catalog"
	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// CatalogStore keeps the skill catalog in SQLite. It serves as a catalog
// source for the refresher and as the target of catalog imports.
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a new SQLite-backed catalog store.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// Name implements catalog.Source.
func (s *CatalogStore) Name() string {
	return "sqlite"
}

// Load implements catalog.Source.
func (s *CatalogStore) Load(ctx context.Context) (*catalog.Snapshot, error) {
	snap := &catalog.Snapshot{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, difficulty FROM skills ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	for rows.Next() {
		var sk domain.Skill
		var category string
		if err := rows.Scan(&sk.ID, &sk.Name, &category, &sk.Difficulty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		sk.Category = domain.Category(category)
		snap.Skills = append(snap.Skills, sk)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT from_skill, to_skill, kind, strength
		FROM skill_relations ORDER BY from_skill, to_skill, kind`)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	for rows.Next() {
		var r domain.SkillRelation
		var kind string
		if err := rows.Scan(&r.From, &r.To, &kind, &r.Strength); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		r.Kind = domain.RelationKind(kind)
		snap.Relations = append(snap.Relations, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT role, skill_id, required_level
		FROM role_requirements ORDER BY role, skill_id`)
	if err != nil {
		return nil, fmt.Errorf("query role requirements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role, skillID string
		var level int
		if err := rows.Scan(&role, &skillID, &level); err != nil {
			return nil, fmt.Errorf("scan role requirement: %w", err)
		}
		if snap.Roles == nil {
			snap.Roles = make(map[string]map[string]int)
		}
		if snap.Roles[role] == nil {
			snap.Roles[role] = make(map[string]int)
		}
		snap.Roles[role][skillID] = level
	}
	return snap, rows.Err()
}

// Import replaces the stored catalog with snap in a single transaction.
// The snapshot is validated first so a bad import leaves the store untouched.
func (s *CatalogStore) Import(ctx context.Context, snap *catalog.Snapshot) error {
	if _, err := snap.Build(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"role_requirements", "skill_relations", "skills"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, sk := range snap.Skills {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO skills (id, name, category, difficulty) VALUES (?, ?, ?, ?)",
			sk.ID, sk.Name, string(sk.Category), sk.DifficultyWeight())
		if err != nil {
			return fmt.Errorf("insert skill %s: %w", sk.ID, err)
		}
	}

	for _, r := range snap.Relations {
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO skill_relations (from_skill, to_skill, kind, strength) VALUES (?, ?, ?, ?)",
			r.From, r.To, string(r.Kind), r.Strength)
		if err != nil {
			return fmt.Errorf("insert relation %s -> %s: %w", r.From, r.To, err)
		}
	}

	for _, role := range slices.Sorted(maps.Keys(snap.Roles)) {
		for skillID, level := range snap.Roles[role] {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO role_requirements (role, skill_id, required_level) VALUES (?, ?, ?)",
				role, skillID, level)
			if err != nil {
				return fmt.Errorf("insert requirement %s/%s: %w", role, skillID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}
