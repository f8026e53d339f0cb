package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campusdesk/campusdesk/internal/jobs"
)

const (
	// TaskTokenSweep transitions overdue issued refresh tokens to the
	// expired state.
	TaskTokenSweep = "token:sweep"
)

// TokenSweepPayload carries scheduling metadata.
type TokenSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// TokenExpirer is the slice of the auth service the sweep needs.
type TokenExpirer interface {
	ExpireOverdueTokens(ctx context.Context) (int64, error)
}

// NewTokenSweepTask constructs an Asynq task for the token sweep.
func NewTokenSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(TokenSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokenSweep, body, asynq.Queue(QueueDefault)), nil
}

// TokenSweepJob wires the sweep handler with its dependencies.
type TokenSweepJob struct {
	expirer TokenExpirer
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewTokenSweepJob constructs a TokenSweepJob.
func NewTokenSweepJob(expirer TokenExpirer, logger *slog.Logger) *TokenSweepJob {
	return &TokenSweepJob{expirer: expirer, logger: logger}
}

// WithMetrics attaches job instrumentation.
func (j *TokenSweepJob) WithMetrics(m *jobmetrics.Metrics) *TokenSweepJob {
	j.metrics = m
	return j
}

// Handle processes TaskTokenSweep tasks.
func (j *TokenSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload TokenSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("token_sweep")
	n, err := j.expirer.ExpireOverdueTokens(ctx)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("token sweep", slog.Any("error", err))
		}
		return tracker.End(err)
	}
	j.metrics.AddExpired(n)
	if j.logger != nil && n > 0 {
		j.logger.Info("token sweep", slog.Int64("expired", n))
	}
	return tracker.End(nil)
}
