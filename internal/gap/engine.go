// Package gap scores a person's skill levels against a role's requirements
// and produces a ranked, explained gap report.
package gap

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

// Input is one analysis request as seen by the engine
type Input struct {
	AssessmentID string
	TargetRole   *string
	Levels       map[string]int // skill ID -> current level, absent means 0
	Requirements map[string]int // skill ID -> required level
	Enrichments  map[string]domain.Enrichment
}

// Engine runs gap analyses. It holds only its policy, so one Engine can
// serve any number of concurrent runs.
type Engine struct {
	policy Policy
}

// NewEngine validates the policy and creates an engine
func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring policy: %w", err)
	}
	return &Engine{policy: policy}, nil
}

// Policy returns the engine's scoring policy
func (e *Engine) Policy() Policy {
	return e.policy
}

// Analyze computes the gap report for one assessment against graph g.
// A *domain.ValidationError fails the run and no partial report is returned.
func (e *Engine) Analyze(ctx context.Context, g *skillgraph.Graph, in Input) (*domain.GapsData, error) {
	if g == nil {
		return nil, domain.ErrSnapshotUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	calc, err := e.calculateGaps(g, in.Levels, in.Requirements)
	if err != nil {
		return nil, err
	}

	diag := &domain.Diagnostics{}
	noRequirements := len(in.Requirements) == 0
	if noRequirements {
		diag.DegenerateCases = append(diag.DegenerateCases, domain.DegenerateNoRequirements)
	}
	if len(in.Levels) == 0 {
		diag.DegenerateCases = append(diag.DegenerateCases, domain.DegenerateNoLevels)
	}
	for _, w := range g.Warnings() {
		if !touchesRequirement(w, in.Requirements) {
			continue
		}
		slog.Warn("skill graph cycle", "assessment_id", in.AssessmentID, "cycle", w.String())
		diag.GraphWarnings = append(diag.GraphWarnings, w.String())
	}

	impacts, err := e.propagateImpact(ctx, g, calc)
	if err != nil {
		return nil, err
	}

	items := e.buildItems(g, calc, impacts, in.Enrichments)
	rank(items)

	strengths := e.detectStrengths(g, calc)
	score := e.readiness(calc, impacts)
	recommendation := e.compose(score, items, strengths, in.TargetRole, noRequirements)

	slog.Debug("gap analysis complete",
		"assessment_id", in.AssessmentID,
		"gaps", len(items),
		"strengths", len(strengths),
		"readiness", score,
	)

	if in.TargetRole != nil {
		role := *in.TargetRole
		in.TargetRole = &role
	}
	return assemble(in, score, items, strengths, recommendation, diag), nil
}

func touchesRequirement(w domain.GraphIntegrityWarning, requirements map[string]int) bool {
	return slices.ContainsFunc(w.Cycle, func(id string) bool {
		_, ok := requirements[id]
		return ok
	})
}
