// Package task runs the feed generation job and reports its outcome as a
// host-style response envelope.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/infra/storage"
)

// Generator is the external collaborator invoked exactly once per trigger.
type Generator interface {
	GenerateAll(ctx context.Context) error
}

// Envelope is the {statusCode, body} pair handed back to the invoking host.
// Body is always a JSON document.
type Envelope struct {
	StatusCode int
	Body       string
}

type successBody struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type failureBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Runner invokes the feed generator once per trigger and converts the outcome
// into a response envelope. It performs no retries; a failure is terminal for
// that invocation and reported upward.
type Runner struct {
	name string
	gen  Generator
	runs storage.TaskRunRepository // optional
	log  *slog.Logger
	now  func() time.Time
}

// NewRunner creates a task runner. runs may be nil to skip run logging.
func NewRunner(gen Generator, runs storage.TaskRunRepository, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		name: "generate-feeds",
		gen:  gen,
		runs: runs,
		log:  log,
		now:  time.Now,
	}
}

// Run invokes the generator exactly once. It never panics and never leaks an
// error: every outcome becomes an envelope.
func (r *Runner) Run(ctx context.Context) Envelope {
	started := r.now().UTC()
	err := r.invoke(ctx)
	finished := r.now().UTC()
	timestamp := finished.Format(time.RFC3339)

	if err != nil {
		r.log.Error("Scheduled feed generation failed", "task", r.name, "error", err)
		r.record(ctx, domain.TaskRunFailed, err.Error(), started, finished)

		body, _ := json.Marshal(failureBody{
			Error:     "Feed generation failed",
			Message:   err.Error(),
			Timestamp: timestamp,
		})
		return Envelope{StatusCode: http.StatusInternalServerError, Body: string(body)}
	}

	r.log.Info("Scheduled feed generation completed", "task", r.name, "duration", finished.Sub(started))
	r.record(ctx, domain.TaskRunSucceeded, "", started, finished)

	body, _ := json.Marshal(successBody{
		Message:   "Feeds generated successfully",
		Timestamp: timestamp,
	})
	return Envelope{StatusCode: http.StatusOK, Body: string(body)}
}

// invoke calls the collaborator, converting a panic into an ordinary error so
// the runner's contract holds for any generator implementation.
func (r *Runner) invoke(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("feed generator panicked: %v", v)
		}
	}()
	return r.gen.GenerateAll(ctx)
}

func (r *Runner) record(
	ctx context.Context,
	status domain.TaskRunStatus,
	message string,
	started, finished time.Time,
) {
	if r.runs == nil {
		return
	}
	run := &domain.TaskRun{
		ID:         uuid.NewString(),
		Name:       r.name,
		Status:     status,
		Message:    message,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if err := r.runs.Save(ctx, run); err != nil {
		r.log.Warn("Failed to record task run", "task", r.name, "error", err)
	}
}
