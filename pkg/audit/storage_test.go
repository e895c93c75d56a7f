package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
)

func TestLogStorage_StoreBatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	storage := audit.NewLogStorage(slog.New(slog.NewJSONHandler(&buf, nil)))

	e := audit.Event{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Feature:     "ccp-06:branded-reports",
		Enabled:     false,
		Reason:      "TIER_INSUFFICIENT",
		Tier:        "free",
		ActorID:     "user-42",
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, storage.StoreBatch(context.Background(), []audit.Event{e}))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "entitlement decision", rec["msg"])
	assert.Equal(t, e.WorkspaceID.String(), rec["workspace_id"])
	assert.Equal(t, "ccp-06:branded-reports", rec["feature"])
	assert.Equal(t, false, rec["enabled"])
	assert.Equal(t, "TIER_INSUFFICIENT", rec["reason"])
	assert.Equal(t, "user-42", rec["actor_id"])
}

func TestLogStorage_NilLoggerPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { audit.NewLogStorage(nil) })
}

func TestMemoryStorage_EventsReturnsCopy(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	require.NoError(t, storage.StoreBatch(context.Background(), []audit.Event{{Feature: "a"}}))

	events := storage.Events()
	events[0].Feature = "mutated"

	assert.Equal(t, "a", storage.Events()[0].Feature)
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		e := audit.Event{WorkspaceID: uuid.New(), Feature: "a"}
		assert.NoError(t, e.Validate())
	})

	t.Run("missing workspace", func(t *testing.T) {
		t.Parallel()
		e := audit.Event{Feature: "a"}
		assert.ErrorIs(t, e.Validate(), audit.ErrEventValidation)
	})

	t.Run("missing feature", func(t *testing.T) {
		t.Parallel()
		e := audit.Event{WorkspaceID: uuid.New()}
		assert.ErrorIs(t, e.Validate(), audit.ErrEventValidation)
	})
}
