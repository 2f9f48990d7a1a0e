package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JobHandler processes analysis jobs
type JobHandler func(ctx context.Context, job *AnalysisJob) (*AnalysisResult, error)

type resultPublisher interface {
	PublishResult(ctx context.Context, replyTo string, result *AnalysisResult) error
}

// Consumer consumes analysis jobs from the queue
type Consumer struct {
	conn       *Connection
	handler    JobHandler
	results    resultPublisher
	workers    int
	prefetch   int
	timeout    time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int           // Number of concurrent workers
	Prefetch int           // Prefetch count per worker
	Timeout  time.Duration // Per-job timeout when the job sets none
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  3,
		Prefetch: 1, // Process one at a time per worker for fairness
		Timeout:  30 * time.Second,
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler JobHandler, cfg ConsumerConfig) *Consumer {
	def := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	return &Consumer{
		conn:     conn,
		handler:  handler,
		results:  NewProducer(conn),
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.Timeout,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		AnalysisQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting analysis queue consumer", "workers", c.workers, "prefetch", c.prefetch)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

// worker processes messages from the queue
func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	slog.Info("worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage handles a single message
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	start := time.Now()

	var job AnalysisJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		slog.Error("failed to unmarshal job",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages
		_ = msg.Reject(false)
		return
	}

	slog.Info("processing analysis job",
		"worker_id", workerID,
		"job_id", job.ID,
		"assessment_id", job.Request.AssessmentID,
	)

	timeout := time.Duration(job.Timeout) * time.Second
	if timeout <= 0 {
		timeout = c.timeout
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.handler(jobCtx, &job)
	duration := time.Since(start)

	if err != nil {
		slog.Error("job processing failed",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
			"duration", duration,
		)

		result = &AnalysisResult{
			AssessmentID: job.Request.AssessmentID,
			Status:       StatusFailed,
			Error:        err.Error(),
		}
		if errors.Is(err, context.DeadlineExceeded) {
			result.Status = StatusTimeout
			result.Error = "analysis timed out"
		}
	} else if result.Status == "" {
		result.Status = StatusCompleted
	}

	result.JobID = job.ID
	result.Duration = duration
	result.CompletedAt = time.Now()

	slog.Info("job finished",
		"worker_id", workerID,
		"job_id", job.ID,
		"status", result.Status,
		"duration", duration,
	)

	if err := c.results.PublishResult(ctx, job.ReplyTo, result); err != nil {
		slog.Error("failed to publish result",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
		)
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
		)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}

// maxUnclaimed bounds results held for jobs nobody has subscribed to yet
const maxUnclaimed = 256

// ResultConsumer consumes analysis results from a private reply queue and
// dispatches them to per-job subscribers. Jobs opt in by setting ReplyTo to
// Queue(). Results that arrive before their subscriber are held until
// claimed.
type ResultConsumer struct {
	conn       *Connection
	queueName  string
	handlers   map[string]ResultHandler
	unclaimed  map[string]*AnalysisResult
	handlersMu sync.RWMutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ResultHandler handles an analysis result for a specific job
type ResultHandler func(result *AnalysisResult)

// NewResultConsumer creates a result consumer
func NewResultConsumer(conn *Connection) *ResultConsumer {
	return &ResultConsumer{
		conn:      conn,
		handlers:  make(map[string]ResultHandler),
		unclaimed: make(map[string]*AnalysisResult),
	}
}

// Queue returns the reply queue name, set once Start succeeds
func (rc *ResultConsumer) Queue() string {
	return rc.queueName
}

// Subscribe registers a handler for results of a specific job. A result
// that already arrived is delivered immediately.
func (rc *ResultConsumer) Subscribe(jobID string, handler ResultHandler) {
	rc.handlersMu.Lock()
	if result, ok := rc.unclaimed[jobID]; ok {
		delete(rc.unclaimed, jobID)
		rc.handlersMu.Unlock()
		handler(result)
		return
	}
	rc.handlers[jobID] = handler
	rc.handlersMu.Unlock()
}

// Unsubscribe removes a handler
func (rc *ResultConsumer) Unsubscribe(jobID string) {
	rc.handlersMu.Lock()
	defer rc.handlersMu.Unlock()
	delete(rc.handlers, jobID)
}

// Expect subscribes to jobID and returns a function that blocks until the
// result arrives or ctx ends. Call it before publishing the job.
func (rc *ResultConsumer) Expect(jobID string) func(ctx context.Context) (*AnalysisResult, error) {
	done := make(chan *AnalysisResult, 1)
	rc.Subscribe(jobID, func(result *AnalysisResult) {
		select {
		case done <- result:
		default:
		}
	})

	return func(ctx context.Context) (*AnalysisResult, error) {
		defer rc.Unsubscribe(jobID)
		select {
		case result := <-done:
			return result, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Await blocks until the result for jobID arrives or ctx ends
func (rc *ResultConsumer) Await(ctx context.Context, jobID string) (*AnalysisResult, error) {
	return rc.Expect(jobID)(ctx)
}

// Start declares the exclusive reply queue and begins consuming results
func (rc *ResultConsumer) Start(ctx context.Context) error {
	ch := rc.conn.Channel()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare reply queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start result consumer: %w", err)
	}
	rc.queueName = q.Name

	ctx, rc.cancelFunc = context.WithCancel(ctx)
	rc.wg.Add(1)
	go rc.consume(ctx, msgs)

	return nil
}

func (rc *ResultConsumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer rc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			rc.dispatch(msg.Body)
		}
	}
}

func (rc *ResultConsumer) dispatch(body []byte) {
	var result AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Error("failed to unmarshal result", "error", err)
		return
	}
	jobID := result.JobID.String()

	rc.handlersMu.Lock()
	handler, ok := rc.handlers[jobID]
	if !ok {
		if len(rc.unclaimed) >= maxUnclaimed {
			rc.handlersMu.Unlock()
			slog.Warn("dropping unclaimed result", "job_id", jobID)
			return
		}
		rc.unclaimed[jobID] = &result
	}
	rc.handlersMu.Unlock()

	if ok {
		handler(&result)
	}
}

// Stop stops the result consumer
func (rc *ResultConsumer) Stop() {
	if rc.cancelFunc != nil {
		rc.cancelFunc()
	}
	rc.wg.Wait()
}
