package ports

import (
	"context"

	"github.com/welzyne/courier-system/internal/core/domain"
)

// Broadcaster fans a state-change event out to every connected real-time
// client. Delivery is at-most-once.
type Broadcaster interface {
	Publish(ctx context.Context, event domain.Event)
}
