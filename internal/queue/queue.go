// Package queue is a Redis-backed FIFO of run requests, consumed by
// cmd/workflow-worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	jobListKey      = "dagengine:jobs:pending"
	jobDataKeyPrefix = "dagengine:jobs:data:"
	jobTTL          = 24 * time.Hour
)

// Job describes one workflow run to execute.
type Job struct {
	RunID      uuid.UUID       `json:"run_id"`
	WorkflowID uuid.UUID       `json:"workflow_id"`
	UserInputs json.RawMessage `json:"user_inputs,omitempty"`
}

// Queue wraps a Redis client with Enqueue/Dequeue for Job values.
type Queue struct {
	client *redis.Client
}

// New creates a Queue over an existing Redis client.
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Enqueue stores the job payload and pushes its ID onto the pending list.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}

	dataKey := jobDataKeyPrefix + job.RunID.String()
	if err := q.client.Set(ctx, dataKey, data, jobTTL).Err(); err != nil {
		return fmt.Errorf("storing job data: %w", err)
	}
	if err := q.client.LPush(ctx, jobListKey, job.RunID.String()).Err(); err != nil {
		return fmt.Errorf("pushing job id: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available or the context is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BRPop(ctx, 0, jobListKey).Result()
	if err != nil {
		return nil, err
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BRPOP result shape")
	}
	runID := result[1]

	dataKey := jobDataKeyPrefix + runID
	data, err := q.client.Get(ctx, dataKey).Bytes()
	if err != nil {
		return nil, fmt.Errorf("fetching job data for %s: %w", runID, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshaling job %s: %w", runID, err)
	}

	q.client.Del(ctx, dataKey) // best-effort cleanup

	return &job, nil
}

// Length reports the number of jobs currently pending.
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, jobListKey).Result()
}
