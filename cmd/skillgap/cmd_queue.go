package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/app"
	"github.com/felixgeelhaar/skillgap/internal/queue"
)

var submitCmd = &cobra.Command{
	Use:   "submit [request.json]",
	Short: "Publish an analysis request as a background job",
	Long: `Publishes the request to the skillgap.analyses queue. Without --wait the
result lands on the shared skillgap.results queue. With --wait the result is
routed to a private reply queue and the command blocks until it arrives.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Queue.URL == "" {
			return fmt.Errorf("queue not configured: set RABBITMQ_URL or rabbitmq_url in secrets.yaml")
		}

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open request: %w", err)
			}
			defer f.Close()
			in = f
		}
		var req analysis.Request
		if err := json.NewDecoder(in).Decode(&req); err != nil {
			return fmt.Errorf("parse request: %w", err)
		}

		conn, err := queue.NewConnection(cfg.Queue.URL)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer conn.Close()

		ctx := cmd.Context()
		job := queue.NewAnalysisJob(req, timeout)

		var await func(context.Context) (*queue.AnalysisResult, error)
		if wait {
			results := queue.NewResultConsumer(conn)
			if err := results.Start(ctx); err != nil {
				return fmt.Errorf("start result consumer: %w", err)
			}
			defer results.Stop()
			job.ReplyTo = results.Queue()
			await = results.Expect(job.ID.String())
		}

		if err := queue.NewProducer(conn).PublishAnalysisJob(ctx, job); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Submitted job %s (assessment %s)\n", job.ID, job.Request.AssessmentID)

		if !wait {
			return nil
		}

		waitCtx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
		defer cancel()
		result, err := await(waitCtx)
		if err != nil {
			return fmt.Errorf("await result: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if result.Status != queue.StatusCompleted {
			return fmt.Errorf("job %s %s: %s", job.ID, result.Status, result.Error)
		}
		return nil
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume analysis jobs from RabbitMQ",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Queue.URL == "" {
			return fmt.Errorf("queue not configured: set RABBITMQ_URL or rabbitmq_url in secrets.yaml")
		}
		if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
			cfg.Queue.Workers = n
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		services, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer services.Close(context.Background())
		services.Refresher.Start(ctx)

		conn, err := queue.NewConnection(cfg.Queue.URL)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer conn.Close()

		consumer := queue.NewConsumer(conn, queue.AnalysisHandler(services.Analysis), queue.ConsumerConfig{
			Workers:  cfg.Queue.Workers,
			Prefetch: cfg.Queue.Prefetch,
			Timeout:  time.Duration(cfg.Queue.TimeoutSeconds) * time.Second,
		})
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("start consumer: %w", err)
		}

		slog.Info("worker running", "workers", cfg.Queue.Workers, "queue", queue.AnalysisQueueName)
		<-ctx.Done()
		consumer.Stop()
		slog.Info("worker stopped")
		return nil
	},
}

func init() {
	submitCmd.Flags().Bool("wait", false, "Wait for the result and print it")
	submitCmd.Flags().Duration("timeout", 30*time.Second, "Per-job analysis timeout")
	workerCmd.Flags().Int("workers", 0, "Concurrent workers (overrides config)")
}
