package booking

import (
	"context"
	"errors"
	"time"
)

// Admission validates and persists booking requests. Rules are checked in
// order and the first failure wins: range, past, duration, overlap. Only a
// request passing all four reaches the store.
type Admission struct {
	Store   Store
	Clock   Clock
	MaxSpan time.Duration
}

// Admit attempts to book [start, end) for ownerID. On success it returns the
// persisted reservation id. Rejections are ErrInvalidRange, ErrPastBooking,
// ErrTooLong or ErrConflict; anything else is a *StorageError.
func (a *Admission) Admit(ctx context.Context, ownerID int64, start, end time.Time) (int64, error) {
	if !start.Before(end) {
		return 0, ErrInvalidRange
	}
	if end.Before(a.Clock.Now()) {
		return 0, ErrPastBooking
	}
	if end.Sub(start) > a.MaxSpan {
		return 0, ErrTooLong
	}

	conflict, err := a.Store.Overlaps(ctx, start, end)
	if err != nil {
		return 0, &StorageError{Op: "overlap check", Err: err}
	}
	if conflict {
		return 0, ErrConflict
	}

	id, err := a.Store.Insert(ctx, ownerID, start, end)
	if err != nil {
		// A concurrent admission can win between the check and the
		// insert; the store reports that as ErrConflict.
		if errors.Is(err, ErrConflict) {
			return 0, ErrConflict
		}
		return 0, &StorageError{Op: "insert", Err: err}
	}
	return id, nil
}
