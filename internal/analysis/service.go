// Package analysis runs gap analyses against the current catalog snapshot
// and persists the resulting reports.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/gap"
	"github.com/felixgeelhaar/skillgap/internal/observability"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

var assessmentIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Config holds service limits
type Config struct {
	// MaxConcurrent caps simultaneous analyses; zero means unlimited
	MaxConcurrent int

	// QueueTimeout bounds how long a request waits for a slot (default: 10s)
	QueueTimeout time.Duration
}

// RoleSummary describes a named role profile
type RoleSummary struct {
	Name         string         `json:"name"`
	Requirements map[string]int `json:"requirements"`
}

// Service coordinates the engine, the catalog holder and the report store
type Service struct {
	engine  *gap.Engine
	holder  *skillgraph.Holder
	store   ReportStore
	limiter bulkhead.Bulkhead[*StoredReport]
	now     func() time.Time
}

// NewService creates an analysis service. store may be nil, in which case
// reports are returned but not persisted.
func NewService(engine *gap.Engine, holder *skillgraph.Holder, store ReportStore, cfg Config) *Service {
	s := &Service{
		engine: engine,
		holder: holder,
		store:  store,
		now:    time.Now,
	}

	if cfg.MaxConcurrent > 0 {
		timeout := cfg.QueueTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		s.limiter = bulkhead.New[*StoredReport](bulkhead.Config{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxQueue:      cfg.MaxConcurrent * 4,
			QueueTimeout:  timeout,
		})
	}

	return s
}

// Analyze runs one analysis and persists the report
func (s *Service) Analyze(ctx context.Context, req Request) (*StoredReport, error) {
	if req.AssessmentID == "" {
		req.AssessmentID = uuid.NewString()
	}
	if !assessmentIDPattern.MatchString(req.AssessmentID) {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid assessment id %q", req.AssessmentID))
	}

	ctx, span := observability.StartAnalysisSpan(ctx, req.AssessmentID, req.Role)
	defer span.End()

	run := func(ctx context.Context) (*StoredReport, error) {
		return s.analyze(ctx, req)
	}

	var stored *StoredReport
	var err error
	if s.limiter != nil {
		stored, err = s.limiter.Execute(ctx, run)
	} else {
		stored, err = run(ctx)
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	r := stored.Report
	observability.RecordAnalysisResult(span, len(r.Gaps), len(r.Strengths), r.ReadinessScore, stored.CatalogRevision)
	return stored, nil
}

func (s *Service) analyze(ctx context.Context, req Request) (*StoredReport, error) {
	snap, err := s.holder.Current()
	if err != nil {
		return nil, err
	}

	requirements, err := resolveRequirements(snap, req)
	if err != nil {
		return nil, err
	}

	var label *string
	switch {
	case req.TargetRole != "":
		label = &req.TargetRole
	case req.Role != "":
		label = &req.Role
	}

	report, err := s.engine.Analyze(ctx, snap.Graph, gap.Input{
		AssessmentID: req.AssessmentID,
		TargetRole:   label,
		Levels:       req.Levels,
		Requirements: requirements,
		Enrichments:  req.Enrichments,
	})
	if err != nil {
		return nil, err
	}

	stored := &StoredReport{
		ID:              req.AssessmentID,
		Role:            req.Role,
		CatalogRevision: snap.Revision,
		CatalogSource:   snap.Source,
		Report:          report,
		CreatedAt:       s.now().UTC(),
	}

	if s.store != nil {
		if err := s.store.Save(stored); err != nil {
			return nil, fmt.Errorf("persist report: %w", err)
		}
	}

	slog.Info("analysis complete",
		"assessment_id", stored.ID,
		"role", req.Role,
		"catalog_revision", snap.Revision,
		"gaps", len(report.Gaps),
		"readiness", report.ReadinessScore)

	return stored, nil
}

// resolveRequirements starts from the named role profile, if any, and lets
// explicit requirements override individual entries
func resolveRequirements(snap *skillgraph.Snapshot, req Request) (map[string]int, error) {
	requirements := make(map[string]int)

	if req.Role != "" {
		reqs, ok := snap.RoleRequirements(req.Role)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrRoleNotFound, req.Role)
		}
		requirements = reqs
	}
	maps.Copy(requirements, req.Requirements)

	return requirements, nil
}

// GetReport returns a stored report
func (s *Service) GetReport(id string) (*StoredReport, error) {
	if s.store == nil {
		return nil, domain.ErrReportNotFound
	}
	return s.store.Get(id)
}

// ListReports returns stored reports, newest first
func (s *Service) ListReports() ([]*StoredReport, error) {
	if s.store == nil {
		return []*StoredReport{}, nil
	}
	return s.store.List()
}

// DeleteReport removes a stored report
func (s *Service) DeleteReport(id string) error {
	if s.store == nil {
		return domain.ErrReportNotFound
	}
	return s.store.Delete(id)
}

// Roles lists the role profiles in the current snapshot
func (s *Service) Roles() ([]RoleSummary, error) {
	snap, err := s.holder.Current()
	if err != nil {
		return nil, err
	}

	names := snap.Roles()
	roles := make([]RoleSummary, 0, len(names))
	for _, name := range names {
		reqs, _ := snap.RoleRequirements(name)
		roles = append(roles, RoleSummary{Name: name, Requirements: reqs})
	}
	return roles, nil
}

// Snapshot returns the current catalog snapshot
func (s *Service) Snapshot() (*skillgraph.Snapshot, error) {
	return s.holder.Current()
}

// Policy returns the scoring policy in effect
func (s *Service) Policy() gap.Policy {
	return s.engine.Policy()
}
