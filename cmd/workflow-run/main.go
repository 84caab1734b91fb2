// Command workflow-run loads a workflow definition and a tool registry from
// disk, validates and executes the workflow once against the given user
// inputs, and prints the resulting run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/flowcraft/dagengine/internal/domain"
	"github.com/flowcraft/dagengine/internal/engine"
	"github.com/flowcraft/dagengine/internal/registry"
	"github.com/flowcraft/dagengine/pkg/telemetry"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	workflowPath := flag.String("workflow", "", "path to a workflow JSON file")
	inputPath := flag.String("input", "", "path to a JSON file of user inputs (optional)")
	toolsDir := flag.String("tools", getEnv("TOOLS_DIR", "./tools"), "directory of YAML tool definitions")
	flag.Parse()

	if *workflowPath == "" {
		fmt.Fprintln(os.Stderr, "usage: workflow-run -workflow workflow.json [-input input.json] [-tools ./tools]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	telemetryEnabled := getEnv("OTEL_ENABLED", "false") == "true"
	provider, err := telemetry.NewProvider(ctx, &telemetry.Config{
		ServiceName:  "workflow-run",
		Environment:  getEnv("ENVIRONMENT", "development"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Enabled:      telemetryEnabled,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer provider.Shutdown(ctx)

	wf, err := loadWorkflow(*workflowPath)
	if err != nil {
		logger.Error("failed to load workflow", "error", err)
		os.Exit(1)
	}

	userInputs, err := loadUserInputs(*inputPath)
	if err != nil {
		logger.Error("failed to load input", "error", err)
		os.Exit(1)
	}

	reg, err := registry.NewLoader(*toolsDir).LoadAll()
	if err != nil {
		logger.Error("failed to load tool registry", "error", err)
		os.Exit(1)
	}

	inputJSON, _ := json.Marshal(userInputs)
	run := domain.NewRun(wf.ID, inputJSON)

	exec := engine.New(reg, engine.WithLogger(logger), engine.WithOnStepComplete(func(r domain.StepResult) {
		logger.Info("step complete", "step_id", r.StepID, "status", string(r.Status))
	}))

	if err := exec.Execute(ctx, wf, run, userInputs); err != nil {
		logger.Error("run failed", "error", err)
	}

	out, _ := json.MarshalIndent(run, "", "  ")
	fmt.Println(string(out))

	if run.Status == domain.RunStatusFailed {
		os.Exit(1)
	}
}

func loadWorkflow(path string) (*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}
	var wf domain.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing workflow file: %w", err)
	}
	if wf.ID == uuid.Nil {
		wf.ID = uuid.New()
	}
	return &wf, nil
}

func loadUserInputs(path string) (map[string]interface{}, error) {
	if path == "" {
		return map[string]interface{}{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	var inputs map[string]interface{}
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parsing input file: %w", err)
	}
	return inputs, nil
}
