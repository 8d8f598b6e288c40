package booking

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func window(t *testing.T, date string, openHour, closeHour int) DayWindow {
	t.Helper()
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		t.Fatalf("parse date %s: %v", date, err)
	}
	y, m, d := day.Date()
	return DayWindow{
		Date:  date,
		Open:  time.Date(y, m, d, openHour, 0, 0, 0, time.UTC),
		Close: time.Date(y, m, d, closeHour, 0, 0, 0, time.UTC),
	}
}

func at(t *testing.T, date, hm string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hm, time.UTC)
	if err != nil {
		t.Fatalf("parse %s %s: %v", date, hm, err)
	}
	return ts
}

func TestPartitionDayEmpty(t *testing.T) {
	win := window(t, "2025-06-02", 8, 22)

	blocks := PartitionDay(win, nil)

	want := []Block{{OffsetMinutes: 0, DurationMinutes: 840, Status: StatusFree}}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("PartitionDay(empty) = %+v, want %+v", blocks, want)
	}
}

func TestPartitionDaySingleReservation(t *testing.T) {
	win := window(t, "2025-06-02", 8, 22)
	reservations := []Reservation{
		{ID: 1, OwnerID: 1, OwnerName: "José Alvarado", Start: at(t, "2025-06-02", "10:00"), End: at(t, "2025-06-02", "10:30")},
	}

	blocks := PartitionDay(win, reservations)

	want := []Block{
		{OffsetMinutes: 0, DurationMinutes: 120, Status: StatusFree},
		{OffsetMinutes: 120, DurationMinutes: 30, Status: StatusReserved, OwnerName: "José Alvarado"},
		{OffsetMinutes: 150, DurationMinutes: 690, Status: StatusFree},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("PartitionDay = %+v, want %+v", blocks, want)
	}
}

func TestPartitionDayAbuttingReservations(t *testing.T) {
	win := window(t, "2025-06-02", 8, 22)
	reservations := []Reservation{
		{OwnerName: "A", Start: at(t, "2025-06-02", "09:00"), End: at(t, "2025-06-02", "10:00")},
		{OwnerName: "B", Start: at(t, "2025-06-02", "10:00"), End: at(t, "2025-06-02", "11:30")},
	}

	blocks := PartitionDay(win, reservations)

	want := []Block{
		{OffsetMinutes: 0, DurationMinutes: 60, Status: StatusFree},
		{OffsetMinutes: 60, DurationMinutes: 60, Status: StatusReserved, OwnerName: "A"},
		{OffsetMinutes: 120, DurationMinutes: 90, Status: StatusReserved, OwnerName: "B"},
		{OffsetMinutes: 210, DurationMinutes: 630, Status: StatusFree},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("PartitionDay = %+v, want %+v", blocks, want)
	}
}

func TestPartitionDayReservationAtOpen(t *testing.T) {
	win := window(t, "2025-06-02", 8, 22)
	reservations := []Reservation{
		{OwnerName: "A", Start: at(t, "2025-06-02", "08:00"), End: at(t, "2025-06-02", "09:00")},
	}

	blocks := PartitionDay(win, reservations)

	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (no leading free block): %+v", len(blocks), blocks)
	}
	if blocks[0].Status != StatusReserved || blocks[0].OffsetMinutes != 0 {
		t.Errorf("first block = %+v, want reserved at offset 0", blocks[0])
	}
}

func TestPartitionDayReservationAtClose(t *testing.T) {
	win := window(t, "2025-06-02", 8, 22)
	reservations := []Reservation{
		{OwnerName: "A", Start: at(t, "2025-06-02", "21:00"), End: at(t, "2025-06-02", "22:00")},
	}

	blocks := PartitionDay(win, reservations)

	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (no trailing free block): %+v", len(blocks), blocks)
	}
	last := blocks[len(blocks)-1]
	if last.Status != StatusReserved {
		t.Errorf("last block = %+v, want reserved", last)
	}
}

// The block sequence must be contiguous and cover the window exactly.
func TestPartitionDayCoversWindow(t *testing.T) {
	win := window(t, "2025-06-02", 8, 22)
	cases := map[string][]Reservation{
		"empty": nil,
		"one": {
			{OwnerName: "A", Start: at(t, "2025-06-02", "10:00"), End: at(t, "2025-06-02", "10:30")},
		},
		"several": {
			{OwnerName: "A", Start: at(t, "2025-06-02", "08:00"), End: at(t, "2025-06-02", "09:15")},
			{OwnerName: "B", Start: at(t, "2025-06-02", "09:15"), End: at(t, "2025-06-02", "10:00")},
			{OwnerName: "C", Start: at(t, "2025-06-02", "13:00"), End: at(t, "2025-06-02", "14:00")},
			{OwnerName: "D", Start: at(t, "2025-06-02", "21:30"), End: at(t, "2025-06-02", "22:00")},
		},
	}

	for name, reservations := range cases {
		blocks := PartitionDay(win, reservations)

		total := 0
		cursor := 0
		for i, b := range blocks {
			if b.OffsetMinutes != cursor {
				t.Errorf("%s: block %d offset = %d, want %d (gap or overlap)", name, i, b.OffsetMinutes, cursor)
			}
			if b.DurationMinutes <= 0 {
				t.Errorf("%s: block %d has non-positive duration %d", name, i, b.DurationMinutes)
			}
			cursor += b.DurationMinutes
			total += b.DurationMinutes
		}
		if total != 840 {
			t.Errorf("%s: durations sum to %d, want 840", name, total)
		}
	}
}

type stubStore struct {
	reservations []Reservation
	err          error
}

func (s *stubStore) ListWithin(ctx context.Context, start, end time.Time) ([]Reservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Reservation
	for _, r := range s.reservations {
		if !r.Start.Before(start) && !r.End.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubStore) Overlaps(ctx context.Context, start, end time.Time) (bool, error) {
	for _, r := range s.reservations {
		if r.Start.Before(end) && r.End.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) Insert(ctx context.Context, ownerID int64, start, end time.Time) (int64, error) {
	s.reservations = append(s.reservations, Reservation{OwnerID: ownerID, Start: start, End: end})
	return int64(len(s.reservations)), nil
}

func TestScheduleHorizon(t *testing.T) {
	store := &stubStore{reservations: []Reservation{
		{OwnerName: "A", Start: at(t, "2025-06-03", "10:00"), End: at(t, "2025-06-03", "11:00")},
	}}
	avail := &Availability{Store: store, OpenHour: 8, CloseHour: 22, HorizonDays: 3, Location: time.UTC}
	now := at(t, "2025-06-02", "12:00")

	days, err := avail.Schedule(context.Background(), now)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	wantDates := []string{"2025-06-02", "2025-06-03", "2025-06-04"}
	if len(days) != len(wantDates) {
		t.Fatalf("got %d days, want %d", len(days), len(wantDates))
	}
	for i, d := range days {
		if d.Date != wantDates[i] {
			t.Errorf("day %d date = %s, want %s", i, d.Date, wantDates[i])
		}
	}
	if n := len(days[1].Blocks); n != 3 {
		t.Errorf("2025-06-03 has %d blocks, want 3", n)
	}
	if n := len(days[0].Blocks); n != 1 {
		t.Errorf("2025-06-02 has %d blocks, want 1", n)
	}

	// Same store state, same output.
	again, err := avail.Schedule(context.Background(), now)
	if err != nil {
		t.Fatalf("second Schedule returned error: %v", err)
	}
	if !reflect.DeepEqual(days, again) {
		t.Errorf("Schedule is not idempotent:\nfirst  %+v\nsecond %+v", days, again)
	}
}

func TestSchedulePropagatesStoreError(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	avail := &Availability{Store: store, OpenHour: 8, CloseHour: 22, HorizonDays: 2, Location: time.UTC}

	days, err := avail.Schedule(context.Background(), at(t, "2025-06-02", "12:00"))
	if err == nil {
		t.Fatal("Schedule returned nil error on store failure")
	}
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Errorf("error = %v, want *StorageError", err)
	}
	if days != nil {
		t.Errorf("Schedule returned days %+v alongside error", days)
	}
}
