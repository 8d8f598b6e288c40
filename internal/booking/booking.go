package booking

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Reservation is a persisted interval [Start, End) on the shared resource.
// OwnerName is denormalized at the store boundary so callers never traverse
// a user relation.
type Reservation struct {
	ID        int64
	OwnerID   int64
	OwnerName string
	Start     time.Time
	End       time.Time
}

type BlockStatus string

const (
	StatusFree     BlockStatus = "free"
	StatusReserved BlockStatus = "reserved"
)

// Block is one rendered unit of a day's timeline. Offsets and durations are
// minutes relative to the day's opening time. Blocks are computed per request
// and never stored.
type Block struct {
	OffsetMinutes   int
	DurationMinutes int
	Status          BlockStatus
	OwnerName       string
}

// DayWindow is the bookable portion of a single calendar day.
type DayWindow struct {
	Date  string // "2006-01-02"
	Open  time.Time
	Close time.Time
}

// DaySchedule pairs a date with its block timeline. Schedules are returned
// as a slice so horizon order stays chronological.
type DaySchedule struct {
	Date   string
	Blocks []Block
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Store is the persistence contract for reservations. Insert is the only
// mutation; implementations must guarantee that two overlapping inserts
// cannot both succeed.
type Store interface {
	// ListWithin returns reservations fully contained in [start, end),
	// ordered by start ascending.
	ListWithin(ctx context.Context, start, end time.Time) ([]Reservation, error)

	// Overlaps reports whether any reservation overlaps [start, end).
	Overlaps(ctx context.Context, start, end time.Time) (bool, error)

	// Insert persists a new reservation and returns its id. Returns
	// ErrConflict if an overlapping reservation exists or was committed
	// concurrently.
	Insert(ctx context.Context, ownerID int64, start, end time.Time) (int64, error)
}

// Rejection reasons for booking admission, in validation order.
var (
	ErrInvalidRange = errors.New("start time must be before end time")
	ErrPastBooking  = errors.New("booking ends in the past")
	ErrTooLong      = errors.New("booking exceeds the maximum duration")
	ErrConflict     = errors.New("time range already booked")
)

// StorageError wraps a store failure that is not a business rejection.
// The caller may retry the whole admission; the core does not.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }
