package outbound

import (
	"context"

	"github.com/google/uuid"
)

// Notifier delivers user notifications. Delivery is best effort:
// implementations log failures and never return errors that would abort
// the caller's own work.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string)
}
