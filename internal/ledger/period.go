package ledger

import "time"

// Window is a closed calendar-date interval. Start and End are dates at UTC
// midnight; both endpoints are included.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the date falls inside the window, inclusive on
// both ends. Any time-of-day component is discarded first.
func (w Window) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Period is a labelled month window. Labels are numeric "YYYY-MM"; rendering
// month names is left to the presentation layer.
type Period struct {
	Label  string
	Window Window
}

// DateOnly strips the time-of-day and normalizes to UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the calendar month containing ref, first day through
// last day. Day zero of the following month resolves the last day correctly
// for every month length, leap February included.
func MonthWindow(ref time.Time) Window {
	y, m, _ := ref.Date()
	return Window{
		Start: time.Date(y, m, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC),
	}
}

// TrailingMonths returns n contiguous month periods ending at ref's month,
// oldest first. Returns nil when n <= 0.
func TrailingMonths(ref time.Time, n int) []Period {
	if n <= 0 {
		return nil
	}
	y, m, _ := ref.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	periods := make([]Period, 0, n)
	for i := n - 1; i >= 0; i-- {
		monthStart := first.AddDate(0, -i, 0)
		periods = append(periods, Period{
			Label:  monthStart.Format("2006-01"),
			Window: MonthWindow(monthStart),
		})
	}
	return periods
}
