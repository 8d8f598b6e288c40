package booking

import (
	"context"
	"time"
)

const dateFormat = "2006-01-02"

// Availability computes per-day block timelines over a rolling horizon.
type Availability struct {
	Store       Store
	OpenHour    int
	CloseHour   int
	HorizonDays int
	Location    *time.Location
}

// WindowFor returns the operating window for the calendar day containing t,
// in the configured zone.
func (a *Availability) WindowFor(t time.Time) DayWindow {
	local := t.In(a.Location)
	y, m, d := local.Date()
	return DayWindow{
		Date:  local.Format(dateFormat),
		Open:  time.Date(y, m, d, a.OpenHour, 0, 0, 0, a.Location),
		Close: time.Date(y, m, d, a.CloseHour, 0, 0, 0, a.Location),
	}
}

// Schedule returns one DaySchedule per horizon day starting at now's day,
// in chronological order. A store failure propagates; callers must not
// confuse it with an empty day.
func (a *Availability) Schedule(ctx context.Context, now time.Time) ([]DaySchedule, error) {
	out := make([]DaySchedule, 0, a.HorizonDays)
	for offset := 0; offset < a.HorizonDays; offset++ {
		win := a.WindowFor(now.In(a.Location).AddDate(0, 0, offset))
		reservations, err := a.Store.ListWithin(ctx, win.Open, win.Close)
		if err != nil {
			return nil, &StorageError{Op: "list reservations", Err: err}
		}
		out = append(out, DaySchedule{Date: win.Date, Blocks: PartitionDay(win, reservations)})
	}
	return out, nil
}

// PartitionDay turns the window's reservations into a gap-filled timeline:
// an ordered sequence of free and reserved blocks covering [Open, Close)
// with no gaps or overlaps. Reservations must be sorted by start ascending
// and lie within the window, as ListWithin returns them.
func PartitionDay(win DayWindow, reservations []Reservation) []Block {
	var blocks []Block
	cursor := win.Open
	for _, res := range reservations {
		if cursor.Before(res.Start) {
			blocks = append(blocks, Block{
				OffsetMinutes:   minutesBetween(win.Open, cursor),
				DurationMinutes: minutesBetween(cursor, res.Start),
				Status:          StatusFree,
			})
		}
		blocks = append(blocks, Block{
			OffsetMinutes:   minutesBetween(win.Open, res.Start),
			DurationMinutes: minutesBetween(res.Start, res.End),
			Status:          StatusReserved,
			OwnerName:       res.OwnerName,
		})
		cursor = res.End
	}
	if cursor.Before(win.Close) {
		blocks = append(blocks, Block{
			OffsetMinutes:   minutesBetween(win.Open, cursor),
			DurationMinutes: minutesBetween(cursor, win.Close),
			Status:          StatusFree,
		})
	}
	return blocks
}

func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}
