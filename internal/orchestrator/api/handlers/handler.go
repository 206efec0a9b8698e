package handlers

import (
	"context"

	"github.com/proof-of-inference/avs-backend/internal/orchestrator/core/pipeline"
	"github.com/proof-of-inference/avs-backend/pkg/logging"
	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// TaskProcessor runs one task through the verification pipeline
type TaskProcessor interface {
	Process(ctx context.Context, task types.TaskRequest) types.TaskResponse
}

// TaskHandler handles verification task requests
type TaskHandler struct {
	logger    logging.Logger
	processor TaskProcessor
	store     *pipeline.ResultStore

	// Counting semaphore bounding tasks in flight to protect downstream
	// services from overload
	sem chan struct{}
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(logger logging.Logger, processor TaskProcessor, store *pipeline.ResultStore, maxConcurrentTasks int) *TaskHandler {
	if maxConcurrentTasks <= 0 {
		maxConcurrentTasks = 32
	}
	return &TaskHandler{
		logger:    logger,
		processor: processor,
		store:     store,
		sem:       make(chan struct{}, maxConcurrentTasks),
	}
}
