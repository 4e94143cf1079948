// Package jobs defines the background tasks and the Asynq worker running
// them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup pre-computes dashboard reports for active
	// accounts.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload parameterises a warmup run. Ref is the reference
// date in YYYY-MM-DD form; empty means today.
type DashboardWarmupPayload struct {
	Ref string `json:"ref,omitempty"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
