package domain

import (
	"time"
)

// TaskRunStatus is the terminal outcome of a scheduled task invocation.
type TaskRunStatus string

const (
	TaskRunSucceeded TaskRunStatus = "succeeded"
	TaskRunFailed    TaskRunStatus = "failed"
)

// TaskRun records one invocation of a scheduled task.
type TaskRun struct {
	ID         string
	Name       string
	Status     TaskRunStatus
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}
