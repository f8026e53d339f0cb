package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExpirer struct {
	n   int64
	err error
}

func (s *stubExpirer) ExpireOverdueTokens(ctx context.Context) (int64, error) {
	return s.n, s.err
}

func TestTokenSweepJobHandle(t *testing.T) {
	task, err := NewTokenSweepTask(time.Now())
	require.NoError(t, err)

	job := NewTokenSweepJob(&stubExpirer{n: 3}, nil)
	assert.NoError(t, job.Handle(context.Background(), task))
}

func TestTokenSweepJobPropagatesError(t *testing.T) {
	task, err := NewTokenSweepTask(time.Now())
	require.NoError(t, err)

	want := errors.New("db down")
	job := NewTokenSweepJob(&stubExpirer{err: want}, nil)
	assert.ErrorIs(t, job.Handle(context.Background(), task), want)
}

func TestTokenSweepJobSkipsMalformedPayload(t *testing.T) {
	job := NewTokenSweepJob(&stubExpirer{}, nil)
	task := asynq.NewTask(TaskTokenSweep, []byte("not json"))
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestSecurityAlertTaskRoundTrip(t *testing.T) {
	task, err := NewSecurityAlertTask(SecurityAlertPayload{PrincipalID: 7, Detail: "refresh token reuse detected"})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSecurityAlert, task.Type())
	assert.NoError(t, HandleSecurityAlertTask(context.Background(), task))
}
