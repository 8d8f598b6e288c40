package booking

import (
	"context"
	"errors"
	"time"

	"github.com/example/fieldbook/internal/db"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error code raised by the bookings_no_overlap exclusion constraint.
const exclusionViolation = "23P01"

// Repo is the Postgres-backed Store.
type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) ListWithin(ctx context.Context, start, end time.Time) ([]Reservation, error) {
	rows, err := r.db.Query(ctx, `
SELECT b.id, b.user_id, COALESCE(u.first_name || ' ' || u.last_name, 'Unknown'), b.start_time, b.end_time
FROM bookings b
LEFT JOIN users u ON u.id = b.user_id
WHERE b.start_time >= $1 AND b.end_time <= $2
ORDER BY b.start_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.OwnerID, &res.OwnerName, &res.Start, &res.End); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repo) Overlaps(ctx context.Context, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
SELECT EXISTS(
	SELECT 1 FROM bookings WHERE start_time < $2 AND end_time > $1
)`, start, end).Scan(&exists)
	return exists, err
}

// Insert rechecks for overlap and inserts inside one transaction. The
// exclusion constraint on the table catches any race the recheck misses;
// either path surfaces as ErrConflict.
func (r *Repo) Insert(ctx context.Context, ownerID int64, start, end time.Time) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
SELECT EXISTS(
	SELECT 1 FROM bookings WHERE start_time < $2 AND end_time > $1
)`, start, end).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrConflict
	}

	var id int64
	err = tx.QueryRow(ctx, `
INSERT INTO bookings(user_id, start_time, end_time) VALUES ($1, $2, $3)
RETURNING id`, ownerID, start, end).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return 0, ErrConflict
		}
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return 0, ErrConflict
		}
		return 0, err
	}
	return id, nil
}
