// Command workflow-worker pulls run jobs off a Redis queue and executes
// them against workflow definitions loaded from disk, one at a time.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/flowcraft/dagengine/internal/domain"
	"github.com/flowcraft/dagengine/internal/engine"
	"github.com/flowcraft/dagengine/internal/queue"
	"github.com/flowcraft/dagengine/internal/registry"
	"github.com/flowcraft/dagengine/pkg/database"
	redispkg "github.com/flowcraft/dagengine/pkg/redis"
	"github.com/flowcraft/dagengine/pkg/telemetry"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.NewProvider(ctx, &telemetry.Config{
		ServiceName:  "workflow-worker",
		Environment:  getEnv("ENVIRONMENT", "development"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Enabled:      getEnv("OTEL_ENABLED", "false") == "true",
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer provider.Shutdown(ctx)

	redisClient, err := redispkg.NewClient(ctx, &redispkg.Config{URL: getEnv("REDIS_URL", "redis://localhost:6379/0")})
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// The database pool is an ambient hook for a caller that wants to
	// persist runs/step results; the engine itself never touches it.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := database.NewPool(ctx, database.DefaultConfig(dbURL))
		if err != nil {
			logger.Warn("database unavailable, continuing without persistence", "error", err)
		} else {
			defer pool.Close()
		}
	}

	reg, err := registry.NewLoader(getEnv("TOOLS_DIR", "./tools")).LoadAll()
	if err != nil {
		logger.Error("failed to load tool registry", "error", err)
		os.Exit(1)
	}

	workflows, err := loadWorkflows(getEnv("WORKFLOWS_DIR", "./workflows"))
	if err != nil {
		logger.Error("failed to load workflows", "error", err)
		os.Exit(1)
	}

	q := queue.New(redisClient)
	exec := engine.New(reg, engine.WithLogger(logger))

	logger.Info("worker started", "workflows", len(workflows))
	for {
		job, err := q.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("worker shutting down")
				return
			}
			logger.Error("dequeue failed", "error", err)
			continue
		}
		runJob(ctx, exec, workflows, *job, logger)
	}
}

func runJob(ctx context.Context, exec *engine.Executor, workflows map[uuid.UUID]*domain.Workflow, job queue.Job, logger *slog.Logger) {
	wf, ok := workflows[job.WorkflowID]
	if !ok {
		logger.Error("unknown workflow", "workflow_id", job.WorkflowID.String())
		return
	}

	var userInputs map[string]interface{}
	if len(job.UserInputs) > 0 {
		if err := json.Unmarshal(job.UserInputs, &userInputs); err != nil {
			logger.Error("invalid job input", "run_id", job.RunID.String(), "error", err)
			return
		}
	}

	run := domain.NewRun(wf.ID, job.UserInputs)
	run.ID = job.RunID

	if err := exec.Execute(ctx, wf, run, userInputs); err != nil {
		logger.Error("run failed", "run_id", run.ID.String(), "error", err)
		return
	}
	logger.Info("run complete", "run_id", run.ID.String(), "status", string(run.Status))
}

func loadWorkflows(dir string) (map[uuid.UUID]*domain.Workflow, error) {
	out := make(map[uuid.UUID]*domain.Workflow)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var wf domain.Workflow
		if err := json.Unmarshal(data, &wf); err != nil {
			return nil, err
		}
		out[wf.ID] = &wf
	}
	return out, nil
}
