package shared

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogTimestampDefaultsToNow(t *testing.T) {
	log := AuditLog{ActorID: "u1", Action: "role.created", Entity: "role", EntityID: "r1"}

	before := time.Now()
	at := log.timestamp()
	after := time.Now()

	assert.False(t, at.IsZero())
	assert.False(t, at.Before(before))
	assert.False(t, at.After(after))
}

func TestAuditLogTimestampKeepsExplicitValue(t *testing.T) {
	set := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	log := AuditLog{ActorID: "u1", Action: "role.created", Entity: "role", EntityID: "r1", At: set}

	assert.True(t, log.timestamp().Equal(set))
}

func TestAuditLoggerRecordRejectsIncompleteEntries(t *testing.T) {
	logger := NewAuditLogger(nil)

	err := logger.Record(context.Background(), AuditLog{ActorID: "u1", Action: "role.created"})
	require.Error(t, err)
}
