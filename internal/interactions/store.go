// Package interactions provides read access to the per-user engagement log.
package interactions

import (
	"context"

	"github.com/smartnews/newsrec/internal/models"
)

// Store exposes the interaction log. Implementations must be safe for
// concurrent readers; the engine never writes through this interface.
type Store interface {
	// ForUser returns all interaction records for userID, in log order.
	// An unknown user yields an empty slice, not an error.
	ForUser(ctx context.Context, userID string) ([]models.InteractionRecord, error)
	// Users returns the distinct user ids present in the log, sorted.
	Users(ctx context.Context) ([]string, error)
	// Count returns the total number of interaction records.
	Count(ctx context.Context) (int64, error)
	Close() error
}
