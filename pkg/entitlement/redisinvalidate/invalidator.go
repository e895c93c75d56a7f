package redisinvalidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
)

// DefaultChannel is the Pub/Sub channel invalidations travel on.
const DefaultChannel = "entitlement:invalidate"

var (
	ErrAlreadySubscribed = errors.New("redisinvalidate: subscription already running")
	ErrPublishFailed     = errors.New("redisinvalidate: failed to publish invalidation")
)

// Message is the payload published for one workspace.
type Message struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Origin      string    `json:"origin,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Invalidator propagates workspace invalidations between processes over
// Redis Pub/Sub. Delivery is at-most-once: a process that misses a message
// converges within the cache TTL.
type Invalidator struct {
	client  redis.UniversalClient
	channel string
	origin  string
	logger  *slog.Logger
	running atomic.Bool
}

var _ entitlement.InvalidationPublisher = (*Invalidator)(nil)

// Option configures an Invalidator.
type Option func(*Invalidator)

func WithChannel(channel string) Option {
	return func(i *Invalidator) {
		if channel != "" {
			i.channel = channel
		}
	}
}

// WithOrigin tags published messages with the process identity. Messages with
// the same origin are ignored by Subscribe, since the publisher has already
// invalidated its own cache.
func WithOrigin(origin string) Option {
	return func(i *Invalidator) {
		i.origin = origin
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(i *Invalidator) {
		if log != nil {
			i.logger = log
		}
	}
}

// New creates an invalidator on an existing client. The caller owns the client.
func New(client redis.UniversalClient, opts ...Option) *Invalidator {
	if client == nil {
		panic("redisinvalidate: client cannot be nil")
	}
	i := &Invalidator{
		client:  client,
		channel: DefaultChannel,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// PublishInvalidation announces that the workspace's cached decisions are stale.
func (i *Invalidator) PublishInvalidation(ctx context.Context, workspaceID uuid.UUID) error {
	data, err := json.Marshal(Message{
		WorkspaceID: workspaceID,
		Origin:      i.origin,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Subscribe applies received invalidations to cache until ctx is cancelled.
// It blocks; run it in its own goroutine. The subscription is confirmed
// before ready is closed, if ready is not nil.
func (i *Invalidator) Subscribe(ctx context.Context, cache entitlement.WorkspaceInvalidator, ready chan<- struct{}) error {
	if !i.running.CompareAndSwap(false, true) {
		return ErrAlreadySubscribed
	}
	defer i.running.Store(false)

	pubsub := i.client.Subscribe(ctx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redisinvalidate: subscribe to %q: %w", i.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	i.logger.InfoContext(ctx, "subscribed to entitlement invalidations", slog.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			i.handle(ctx, cache, msg.Payload)
		}
	}
}

func (i *Invalidator) handle(ctx context.Context, cache entitlement.WorkspaceInvalidator, payload string) {
	var m Message
	if err := json.Unmarshal([]byte(payload), &m); err != nil || m.WorkspaceID == uuid.Nil {
		i.logger.WarnContext(ctx, "dropping malformed invalidation message",
			slog.String("payload", payload),
			logger.Error(err),
		)
		return
	}
	if i.origin != "" && m.Origin == i.origin {
		return
	}

	n := cache.InvalidateWorkspace(m.WorkspaceID)
	i.logger.DebugContext(ctx, "applied remote invalidation",
		logger.WorkspaceID(m.WorkspaceID),
		slog.String("origin", m.Origin),
		slog.Int("entries", n),
	)
}
