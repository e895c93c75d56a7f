package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event records one entitlement decision.
type Event struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Feature     string    `json:"feature"`
	Enabled     bool      `json:"enabled"`
	Reason      string    `json:"reason,omitempty"`
	Tier        string    `json:"tier,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.WorkspaceID == uuid.Nil {
		return fmt.Errorf("%w: workspace_id is required", ErrEventValidation)
	}
	if e.Feature == "" {
		return fmt.Errorf("%w: feature is required", ErrEventValidation)
	}
	return nil
}

// Sink receives audit events. Implementations must return quickly and must
// not report failures to the caller.
type Sink interface {
	Record(ctx context.Context, event Event)
}
