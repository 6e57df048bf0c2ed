package weekly_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"
)

var saoPaulo = time.FixedZone("BRT", -3*60*60)

func date(y int, m time.Month, d, h, min int, loc *time.Location) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, loc)
}

// newTracker returns a tracker with a fixed clock and sequential IDs.
func newTracker(now time.Time) *weekly.Tracker {
	n := 0
	return weekly.New(
		weekly.WithClock(func() time.Time { return now }),
		weekly.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("ws-%d", n)
		}),
		weekly.WithLocation(now.Location()),
	)
}

func TestComputeWeekBounds_Wednesday(t *testing.T) {
	start, end := weekly.ComputeWeekBounds(date(2024, time.March, 13, 15, 42, time.UTC))

	wantStart := date(2024, time.March, 11, 0, 0, time.UTC)
	wantEnd := date(2024, time.March, 17, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("expected week start %v, got %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("expected week end %v, got %v", wantEnd, end)
	}
}

func TestComputeWeekBounds_EveryDayOfWeek(t *testing.T) {
	// 2024-03-11 (Mon) .. 2024-03-17 (Sun), at several times of day.
	wantStart := date(2024, time.March, 11, 0, 0, saoPaulo)
	for day := 11; day <= 17; day++ {
		for _, hour := range []int{0, 9, 23} {
			ref := date(2024, time.March, day, hour, 59, saoPaulo)
			start, end := weekly.ComputeWeekBounds(ref)

			if start.Weekday() != time.Monday {
				t.Errorf("%v: week start is %v, expected Monday", ref, start.Weekday())
			}
			if h, m, s := start.Clock(); h != 0 || m != 0 || s != 0 || start.Nanosecond() != 0 {
				t.Errorf("%v: week start not at midnight: %v", ref, start)
			}
			if !start.Equal(wantStart) {
				t.Errorf("%v: expected week start %v, got %v", ref, wantStart, start)
			}
			if !end.Equal(start.AddDate(0, 0, 6)) || end.Weekday() != time.Sunday {
				t.Errorf("%v: expected week end six days after start, got %v", ref, end)
			}
		}
	}
}

func TestComputeWeekBounds_SundayBelongsToPreviousMonday(t *testing.T) {
	start, _ := weekly.ComputeWeekBounds(date(2024, time.March, 17, 23, 59, time.UTC))
	if !start.Equal(date(2024, time.March, 11, 0, 0, time.UTC)) {
		t.Errorf("expected Sunday to map to Monday 2024-03-11, got %v", start)
	}
}

func TestComputeWeekBounds_AcrossMonthAndYear(t *testing.T) {
	// Wednesday 2025-01-01 belongs to the week starting Monday 2024-12-30.
	start, end := weekly.ComputeWeekBounds(date(2025, time.January, 1, 8, 0, time.UTC))
	if !start.Equal(date(2024, time.December, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected week start %v", start)
	}
	if !end.Equal(date(2025, time.January, 5, 0, 0, time.UTC)) {
		t.Errorf("unexpected week end %v", end)
	}
}

func TestFindWeeklySale_MatchesByCalendarDate(t *testing.T) {
	weekStart := date(2024, time.March, 11, 0, 0, saoPaulo)
	client := domain.Client{
		WeeklySales: []domain.WeeklySale{
			// Stored in UTC by a backend: 03:00Z is midnight in São Paulo.
			{ID: "a", WeekStart: weekStart.UTC(), WeekEnd: weekStart.AddDate(0, 0, 6).UTC(), Sold: true},
		},
	}

	got, ok := weekly.FindWeeklySale(client, weekStart)
	if !ok {
		t.Fatal("expected to find record stored in another location")
	}
	if got.ID != "a" {
		t.Errorf("expected record 'a', got '%s'", got.ID)
	}

	if _, ok := weekly.FindWeeklySale(client, weekStart.AddDate(0, 0, 7)); ok {
		t.Error("expected no record for the following week")
	}
}

func TestFindWeeklySale_IgnoresMalformedWeekEnd(t *testing.T) {
	weekStart := date(2024, time.March, 11, 0, 0, time.UTC)
	client := domain.Client{
		WeeklySales: []domain.WeeklySale{
			{ID: "odd", WeekStart: weekStart.Add(5 * time.Hour), WeekEnd: weekStart.AddDate(0, 1, 0), Sold: false},
		},
	}

	got, ok := weekly.FindWeeklySale(client, weekStart)
	if !ok || got.ID != "odd" {
		t.Fatalf("expected malformed record to match on week start, got %+v (found=%v)", got, ok)
	}
}

func TestToggle_Scenario(t *testing.T) {
	wednesday := date(2024, time.March, 13, 10, 30, time.UTC)
	tracker := newTracker(wednesday)
	client := domain.Client{ID: "c-1", Name: "Agro Silva"}

	// First toggle creates a sold record.
	first := tracker.Toggle(client, wednesday)
	if len(first.WeeklySales) != 1 {
		t.Fatalf("expected 1 weekly sale, got %d", len(first.WeeklySales))
	}
	rec := first.WeeklySales[0]
	if !rec.Sold {
		t.Error("expected first toggle to mark the week as sold")
	}
	if !rec.WeekStart.Equal(date(2024, time.March, 11, 0, 0, time.UTC)) {
		t.Errorf("unexpected week start %v", rec.WeekStart)
	}
	if !rec.WeekEnd.Equal(date(2024, time.March, 17, 0, 0, time.UTC)) {
		t.Errorf("unexpected week end %v", rec.WeekEnd)
	}
	if rec.Notes != "" {
		t.Errorf("expected no notes, got %q", rec.Notes)
	}
	if !rec.CreatedAt.Equal(wednesday) {
		t.Errorf("expected created_at %v, got %v", wednesday, rec.CreatedAt)
	}

	// Second toggle in the same week flips the same record.
	second := tracker.Toggle(first, date(2024, time.March, 16, 18, 0, time.UTC))
	if len(second.WeeklySales) != 1 {
		t.Fatalf("expected still 1 weekly sale, got %d", len(second.WeeklySales))
	}
	if second.WeeklySales[0].Sold {
		t.Error("expected second toggle to unmark the week")
	}
	if second.WeeklySales[0].ID != rec.ID {
		t.Errorf("expected same record id %s, got %s", rec.ID, second.WeeklySales[0].ID)
	}

	// Next Monday creates an independent record.
	third := tracker.Toggle(second, date(2024, time.March, 18, 0, 0, time.UTC))
	if len(third.WeeklySales) != 2 {
		t.Fatalf("expected 2 weekly sales, got %d", len(third.WeeklySales))
	}
	if third.WeeklySales[0].Sold || third.WeeklySales[0].ID != rec.ID {
		t.Errorf("expected first week untouched, got %+v", third.WeeklySales[0])
	}
	next := third.WeeklySales[1]
	if !next.Sold || !next.WeekStart.Equal(date(2024, time.March, 18, 0, 0, time.UTC)) {
		t.Errorf("unexpected record for next week: %+v", next)
	}
	if next.ID == rec.ID {
		t.Error("expected a fresh id for the new week")
	}
}

func TestToggle_DoubleToggleRestoresState(t *testing.T) {
	now := date(2024, time.March, 13, 10, 0, time.UTC)
	tracker := newTracker(now)
	client := domain.Client{
		ID: "c-2",
		WeeklySales: []domain.WeeklySale{
			{ID: "old", WeekStart: date(2024, time.March, 11, 0, 0, time.UTC), WeekEnd: date(2024, time.March, 17, 0, 0, time.UTC), Sold: true, Notes: "pedido grande"},
		},
	}

	got := tracker.Toggle(tracker.Toggle(client, now), now)

	if len(got.WeeklySales) != 1 {
		t.Fatalf("expected 1 weekly sale, got %d", len(got.WeeklySales))
	}
	if got.WeeklySales[0] != client.WeeklySales[0] {
		t.Errorf("expected record restored to %+v, got %+v", client.WeeklySales[0], got.WeeklySales[0])
	}
}

func TestToggle_DoesNotMutateInput(t *testing.T) {
	now := date(2024, time.March, 13, 10, 0, time.UTC)
	tracker := newTracker(now)
	client := domain.Client{
		WeeklySales: []domain.WeeklySale{
			{ID: "w", WeekStart: date(2024, time.March, 11, 0, 0, time.UTC), Sold: false},
		},
	}

	_ = tracker.Toggle(client, now)

	if client.WeeklySales[0].Sold {
		t.Error("expected input client to be left untouched")
	}
}

func TestToggle_IsolatesOtherWeeks(t *testing.T) {
	now := date(2024, time.March, 13, 10, 0, time.UTC)
	tracker := newTracker(now)
	others := []domain.WeeklySale{
		{ID: "w1", WeekStart: date(2024, time.February, 26, 0, 0, time.UTC), Sold: true},
		{ID: "w2", WeekStart: date(2024, time.March, 4, 0, 0, time.UTC), Sold: false},
		{ID: "w4", WeekStart: date(2024, time.March, 18, 0, 0, time.UTC), Sold: true},
	}
	client := domain.Client{WeeklySales: append([]domain.WeeklySale(nil), others...)}

	got := tracker.Toggle(client, now)

	if len(got.WeeklySales) != 4 {
		t.Fatalf("expected 4 weekly sales, got %d", len(got.WeeklySales))
	}
	for i, want := range others {
		if got.WeeklySales[i] != want {
			t.Errorf("record %d changed: want %+v, got %+v", i, want, got.WeeklySales[i])
		}
	}
}

func TestToggle_ZeroReferenceUsesClock(t *testing.T) {
	now := date(2024, time.March, 20, 12, 0, saoPaulo)
	tracker := newTracker(now)

	got := tracker.Toggle(domain.Client{}, time.Time{})

	if len(got.WeeklySales) != 1 {
		t.Fatalf("expected 1 weekly sale, got %d", len(got.WeeklySales))
	}
	if !got.WeeklySales[0].WeekStart.Equal(date(2024, time.March, 18, 0, 0, saoPaulo)) {
		t.Errorf("unexpected week start %v", got.WeeklySales[0].WeekStart)
	}
}

func TestTracker_LocationDefinesTheCalendar(t *testing.T) {
	// Monday 01:00 UTC is still Sunday evening in São Paulo.
	ref := date(2024, time.March, 18, 1, 0, time.UTC)
	tracker := weekly.New(weekly.WithLocation(saoPaulo))

	start, _ := tracker.Bounds(ref)

	if !start.Equal(date(2024, time.March, 11, 0, 0, saoPaulo)) {
		t.Errorf("expected São Paulo week starting 2024-03-11, got %v", start)
	}
}

func TestStatus(t *testing.T) {
	now := date(2024, time.March, 13, 10, 0, time.UTC)
	tracker := newTracker(now)
	client := domain.Client{ID: "c-3"}

	if st := tracker.Status(client, now); st.Sold || st.SaleID != "" {
		t.Errorf("expected unsold week with no record, got %+v", st)
	}

	client = tracker.Toggle(client, now)
	st := tracker.Status(client, now)
	if !st.Sold || st.SaleID != "ws-1" || st.ClientID != "c-3" {
		t.Errorf("unexpected status %+v", st)
	}
	if !tracker.SoldThisWeek(client, now) {
		t.Error("expected SoldThisWeek to be true")
	}
	if tracker.SoldThisWeek(client, now.AddDate(0, 0, 7)) {
		t.Error("expected next week to be unsold")
	}
}
