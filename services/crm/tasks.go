package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"labbook/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeLead = "crm:lead"

func NewLeadTask(lead models.Lead) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(lead)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeLead, b)
	opts := []asynq.Option{asynq.MaxRetry(5), asynq.Timeout(30 * time.Second)}
	return task, opts, nil
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue hands leads to the background worker.
type Queue struct {
	client TaskEnqueuer
	logger *zap.Logger
}

func NewQueue(client TaskEnqueuer, logger *zap.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

func (q *Queue) EnqueueLead(ctx context.Context, lead models.Lead) error {
	task, opts, err := NewLeadTask(lead)
	if err != nil {
		return fmt.Errorf("build lead task: %w", err)
	}
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue lead: %w", err)
	}
	q.logger.Debug("CRM lead queued", zap.String("task", info.ID))
	return nil
}

// Submitter delivers a lead synchronously.
type Submitter interface {
	Submit(ctx context.Context, lead models.Lead) error
}

// HandleLeadTask delivers queued leads. A malformed payload is dropped
// without retry.
func HandleLeadTask(submitter Submitter, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var lead models.Lead
		if err := json.Unmarshal(task.Payload(), &lead); err != nil {
			logger.Error("Invalid CRM lead payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := submitter.Submit(ctx, lead); err != nil {
			logger.Warn("CRM lead delivery failed", zap.Error(err))
			return err
		}
		return nil
	}
}
