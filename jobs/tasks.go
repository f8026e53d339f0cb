package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSecurityAlert is the task type for suspected-theft
	// notifications raised by the token service.
	TaskTypeSecurityAlert = "security:alert"
)

// SecurityAlertPayload describes a security event worth notifying about.
type SecurityAlertPayload struct {
	PrincipalID int64  `json:"principal_id"`
	Detail      string `json:"detail"`
}

// NewSecurityAlertTask constructs an Asynq task.
func NewSecurityAlertTask(payload SecurityAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSecurityAlert, data), nil
}

// HandleSecurityAlertTask processes TaskTypeSecurityAlert tasks.
func HandleSecurityAlertTask(ctx context.Context, t *asynq.Task) error {
	var payload SecurityAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: deliver via SMTP once the notification channel lands.
	fmt.Printf("[jobs] security alert principal=%d detail=%s\n", payload.PrincipalID, payload.Detail)
	return nil
}
