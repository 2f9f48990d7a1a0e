package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
)

// Producer publishes analysis jobs and results
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishAnalysisJob publishes an analysis job to the queue
func (p *Producer) PublishAnalysisJob(ctx context.Context, job *AnalysisJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, AnalysisQueueName, job); err != nil {
		return fmt.Errorf("failed to publish analysis job: %w", err)
	}

	slog.Info("published analysis job",
		"job_id", job.ID,
		"assessment_id", job.Request.AssessmentID,
		"role", job.Request.Role,
	)

	return nil
}

// PublishResult publishes an analysis result to replyTo, or to the shared
// results queue when replyTo is empty
func (p *Producer) PublishResult(ctx context.Context, replyTo string, result *AnalysisResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}
	if replyTo == "" {
		replyTo = ResultQueueName
	}

	if err := p.conn.PublishJSON(ctx, replyTo, result); err != nil {
		return fmt.Errorf("failed to publish analysis result: %w", err)
	}

	slog.Info("published analysis result",
		"job_id", result.JobID,
		"queue", replyTo,
		"status", result.Status,
		"duration", result.Duration,
	)

	return nil
}

// NewAnalysisJob wraps a request in a job. When the request carries no
// assessment ID the job ID is used, so results can be fetched by either.
func NewAnalysisJob(req analysis.Request, timeout time.Duration) *AnalysisJob {
	id := uuid.New()
	if req.AssessmentID == "" {
		req.AssessmentID = id.String()
	}
	return &AnalysisJob{
		ID:        id,
		Request:   req,
		Timeout:   int(timeout / time.Second),
		CreatedAt: time.Now(),
	}
}
