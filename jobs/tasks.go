package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge removes expired login sessions.
	TaskSessionPurge = "session:purge"
	// TaskAuditTrim prunes old audit log entries.
	TaskAuditTrim = "audit:trim"
)

// AuditTrimPayload bounds how much audit history the trim keeps.
type AuditTrimPayload struct {
	KeepDays int `json:"keep_days"`
}

// NewSessionPurgeTask constructs the session purge task.
func NewSessionPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionPurge, nil)
}

// NewAuditTrimTask constructs an audit trim task.
func NewAuditTrimTask(payload AuditTrimPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditTrim, data), nil
}

// SessionPurgeHandler returns the handler for TaskSessionPurge bound to a
// database pool.
func SessionPurgeHandler(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		track := deps.Metrics.Track("session_purge")
		return track.End(PurgeExpiredSessions(ctx, deps.Pool, deps.Logger))
	}
}

// AuditTrimHandler returns the handler for TaskAuditTrim bound to a database
// pool.
func AuditTrimHandler(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditTrimPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		track := deps.Metrics.Track("audit_trim")
		return track.End(TrimAuditLogs(ctx, deps.Pool, deps.Logger, payload.KeepDays))
	}
}
