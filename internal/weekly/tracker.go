// Package weekly implements the per-client, per-week sale flag.
//
// Weeks follow ISO-8601: they start on Monday at 00:00 and end on the
// following Sunday. A client has at most one WeeklySale per week start; the
// first toggle inside a week creates it as sold, later toggles flip it.
// Nothing in this package performs I/O.
package weekly

import (
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/google/uuid"
)

// Tracker toggles and reports weekly sale flags.
// The zero value is not usable; build one with New.
type Tracker struct {
	now   func() time.Time
	newID func() string
	loc   *time.Location
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the clock used for creation timestamps and for
// defaulting a zero reference instant.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides how new WeeklySale IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// WithLocation sets the time zone whose calendar defines week boundaries.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// New creates a tracker using the wall clock, random UUIDs and time.Local
// unless overridden.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		now:   time.Now,
		newID: uuid.NewString,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Location returns the time zone the tracker buckets weeks in.
func (t *Tracker) Location() *time.Location {
	return t.loc
}

// Now returns the tracker's current time in its location.
func (t *Tracker) Now() time.Time {
	return t.now().In(t.loc)
}

// ComputeWeekBounds returns the Monday 00:00 at or before ref and the
// Sunday 00:00 six days later, both in ref's location.
func ComputeWeekBounds(ref time.Time) (weekStart, weekEnd time.Time) {
	y, m, d := ref.Date()
	// Monday=0 ... Sunday=6
	offset := (int(ref.Weekday()) + 6) % 7
	weekStart = time.Date(y, m, d-offset, 0, 0, 0, 0, ref.Location())
	weekEnd = time.Date(y, m, d-offset+6, 0, 0, 0, 0, ref.Location())
	return weekStart, weekEnd
}

// SameDate reports whether a and b fall on the same calendar date,
// judged in b's location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FindWeeklySale returns the client's record whose week start is on the same
// calendar date as weekStart. WeekEnd is not consulted.
func FindWeeklySale(client domain.Client, weekStart time.Time) (domain.WeeklySale, bool) {
	if i := indexOf(client.WeeklySales, weekStart); i >= 0 {
		return client.WeeklySales[i], true
	}
	return domain.WeeklySale{}, false
}

func indexOf(sales []domain.WeeklySale, weekStart time.Time) int {
	for i, s := range sales {
		if SameDate(s.WeekStart, weekStart) {
			return i
		}
	}
	return -1
}

// Bounds returns the week containing ref in the tracker's location.
// A zero ref means now.
func (t *Tracker) Bounds(ref time.Time) (weekStart, weekEnd time.Time) {
	return ComputeWeekBounds(t.reference(ref))
}

// Toggle flips the client's sold flag for the week containing ref, creating
// a sold record when the week has none. The input client is left untouched;
// the returned copy carries a new WeeklySales slice with untouched records in
// their original order.
func (t *Tracker) Toggle(client domain.Client, ref time.Time) domain.Client {
	weekStart, weekEnd := t.Bounds(ref)

	sales := make([]domain.WeeklySale, len(client.WeeklySales), len(client.WeeklySales)+1)
	copy(sales, client.WeeklySales)

	if i := indexOf(sales, weekStart); i >= 0 {
		sales[i].Sold = !sales[i].Sold
	} else {
		sales = append(sales, domain.WeeklySale{
			ID:        t.newID(),
			WeekStart: weekStart,
			WeekEnd:   weekEnd,
			Sold:      true,
			CreatedAt: t.now(),
		})
	}

	client.WeeklySales = sales
	return client
}

// Status reports the client's flag for the week containing ref. A week with
// no record is unsold.
func (t *Tracker) Status(client domain.Client, ref time.Time) domain.WeekStatus {
	weekStart, weekEnd := t.Bounds(ref)
	status := domain.WeekStatus{
		ClientID:  client.ID,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
	}
	if s, ok := FindWeeklySale(client, weekStart); ok {
		status.Sold = s.Sold
		status.SaleID = s.ID
	}
	return status
}

// SoldThisWeek reports whether the client is marked sold for the week
// containing ref.
func (t *Tracker) SoldThisWeek(client domain.Client, ref time.Time) bool {
	return t.Status(client, ref).Sold
}

func (t *Tracker) reference(ref time.Time) time.Time {
	if ref.IsZero() {
		ref = t.now()
	}
	return ref.In(t.loc)
}
