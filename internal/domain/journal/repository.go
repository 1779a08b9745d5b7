// internal/domain/journal/repository.go
package journal

import (
	"context"
	"time"
)

type Repository interface {
	Record(ctx context.Context, e *Entry) error
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
	// PruneBefore deletes entries created before cutoff and reports how many went away.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
