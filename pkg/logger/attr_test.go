package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestError(t *testing.T) {
	t.Parallel()

	attr := logger.Error(errors.New("boom"))
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestErrors(t *testing.T) {
	t.Parallel()

	attr := logger.Errors(errors.New("first"), nil, errors.New("second"))
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "0", g[0].Key)
	assert.Equal(t, "2", g[1].Key)

	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	ws := uuid.New()

	t.Run("workspace", func(t *testing.T) {
		t.Parallel()
		attr := logger.WorkspaceID(ws)
		assert.Equal(t, "workspace_id", attr.Key)
		assert.Equal(t, ws.String(), attr.Value.String())
		assert.True(t, logger.WorkspaceID(uuid.Nil).Equal(slog.Attr{}))
	})

	t.Run("feature", func(t *testing.T) {
		t.Parallel()
		attr := logger.Feature(tier.Feature("ccp-06:branded-reports"))
		assert.Equal(t, "feature", attr.Key)
		assert.Equal(t, "ccp-06:branded-reports", attr.Value.String())
	})

	t.Run("tier", func(t *testing.T) {
		t.Parallel()
		attr := logger.Tier(tier.ProPlus)
		assert.Equal(t, "tier", attr.Key)
		assert.Equal(t, "pro_plus", attr.Value.String())
	})

	t.Run("reason", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "TIER_INSUFFICIENT", logger.Reason("TIER_INSUFFICIENT").Value.String())
		assert.True(t, logger.Reason("").Equal(slog.Attr{}))
	})

	t.Run("actor", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "actor_id", logger.ActorID("u1").Key)
		assert.True(t, logger.ActorID("").Equal(slog.Attr{}))
	})

	t.Run("duration", func(t *testing.T) {
		t.Parallel()
		attr := logger.Duration(time.Second)
		assert.Equal(t, "duration", attr.Key)
		assert.Equal(t, time.Second, attr.Value.Duration())
	})

	t.Run("component", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "syncer", logger.Component("syncer").Value.String())
	})
}
