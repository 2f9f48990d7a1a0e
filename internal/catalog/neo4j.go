package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// Relationship types used in the graph database. Edges run from the
// prerequisite skill to the skill that depends on it.
var neo4jRelTypes = map[string]domain.RelationKind{
	"PREREQUISITE_OF": domain.RelationPrerequisite,
	"BUILDS_ON":       domain.RelationBuildsOn,
	"RELATED":         domain.RelationRelated,
}

// Neo4jSource reads the catalog from a Neo4j graph:
// (:Skill {id, name, category, difficulty}),
// (:Skill)-[:PREREQUISITE_OF|BUILDS_ON|RELATED {strength}]->(:Skill),
// (:Role {name})-[:REQUIRES {level}]->(:Skill).
type Neo4jSource struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jSource connects to Neo4j and verifies connectivity
func NewNeo4jSource(ctx context.Context, uri, username, password, database string) (*Neo4jSource, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jSource{driver: driver, database: database}, nil
}

// Name implements Source
func (s *Neo4jSource) Name() string {
	return "neo4j"
}

// Load implements Source
func (s *Neo4jSource) Load(ctx context.Context) (*Snapshot, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		snap := &Snapshot{}
		verr := &domain.ValidationError{}

		records, err := tx.Run(ctx,
			"MATCH (s:Skill) RETURN s.id AS id, s.name AS name, s.category AS category, s.difficulty AS difficulty ORDER BY id",
			nil)
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			difficulty, _ := recordNumber(rec, "difficulty")
			snap.Skills = append(snap.Skills, domain.Skill{
				ID:         recordString(rec, "id"),
				Name:       recordString(rec, "name"),
				Category:   domain.Category(recordString(rec, "category")),
				Difficulty: difficulty,
			})
		}
		if err := records.Err(); err != nil {
			return nil, err
		}

		records, err = tx.Run(ctx,
			"MATCH (a:Skill)-[r:PREREQUISITE_OF|BUILDS_ON|RELATED]->(b:Skill) "+
				"RETURN a.id AS from, b.id AS to, type(r) AS kind, r.strength AS strength "+
				"ORDER BY from, to, kind",
			nil)
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			if rel, ok := relationFromRecord(records.Record(), verr); ok {
				snap.Relations = append(snap.Relations, rel)
			}
		}
		if err := records.Err(); err != nil {
			return nil, err
		}

		records, err = tx.Run(ctx,
			"MATCH (r:Role)-[q:REQUIRES]->(s:Skill) "+
				"RETURN r.name AS role, s.id AS skill, q.level AS level "+
				"ORDER BY role, skill",
			nil)
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			role, skill := recordString(rec, "role"), recordString(rec, "skill")
			level, ok := recordNumber(rec, "level")
			if !ok {
				verr.Add("role %q requirement on %q has no numeric level", role, skill)
				continue
			}
			snap.addRequirement(role, skill, int(level))
		}
		if err := records.Err(); err != nil {
			return nil, err
		}

		if err := verr.OrNil(); err != nil {
			return nil, err
		}
		return snap, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load neo4j catalog: %w", err)
	}
	return result.(*Snapshot), nil
}

// Close releases the driver
func (s *Neo4jSource) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func recordString(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func relationFromRecord(rec *neo4j.Record, verr *domain.ValidationError) (domain.SkillRelation, bool) {
	relType := recordString(rec, "kind")
	kind, ok := neo4jRelTypes[relType]
	if !ok {
		kind = domain.RelationKind(strings.ToLower(relType))
	}
	rel := domain.SkillRelation{
		From: recordString(rec, "from"),
		To:   recordString(rec, "to"),
		Kind: kind,
	}

	strength, ok := recordNumber(rec, "strength")
	if !ok {
		verr.Add("relation %s -[%s]-> %s has no numeric strength", rel.From, relType, rel.To)
		return rel, false
	}
	rel.Strength = strength
	return rel, true
}

// recordNumber reads an integer or float property. ok is false when the
// property is missing or not numeric.
func recordNumber(rec *neo4j.Record, key string) (float64, bool) {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
