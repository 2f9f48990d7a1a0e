package queue

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// Analyzer runs a single analysis
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.StoredReport, error)
}

// AnalysisHandler adapts an Analyzer to a JobHandler. Invalid input and
// unknown roles produce a rejected result rather than an error, since
// redelivering them cannot succeed.
func AnalysisHandler(a Analyzer) JobHandler {
	return func(ctx context.Context, job *AnalysisJob) (*AnalysisResult, error) {
		stored, err := a.Analyze(ctx, job.Request)
		if err != nil {
			if domain.IsValidation(err) || errors.Is(err, domain.ErrRoleNotFound) {
				return &AnalysisResult{
					AssessmentID: job.Request.AssessmentID,
					Status:       StatusRejected,
					Error:        err.Error(),
				}, nil
			}
			return nil, err
		}

		return &AnalysisResult{
			AssessmentID:    stored.ID,
			Status:          StatusCompleted,
			CatalogRevision: stored.CatalogRevision,
			Report:          stored.Report,
		}, nil
	}
}
