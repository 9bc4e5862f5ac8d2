package core

import "time"

// AddInterval advances t by exactly one calendar unit of the given interval.
// Month and year arithmetic clamps to the last valid day of the target month
// (Jan 31 + 1 month = Feb 29 in a leap year, Feb 28 otherwise), never naive
// day-count addition.
func AddInterval(t time.Time, iv Interval) (time.Time, error) {
	switch iv {
	case Daily:
		return t.AddDate(0, 0, 1), nil
	case Weekly:
		return t.AddDate(0, 0, 7), nil
	case Monthly:
		return AddMonths(t, 1), nil
	case Yearly:
		return AddMonths(t, 12), nil
	}
	return time.Time{}, ErrUnknownInterval
}

// AddMonths shifts t by n calendar months, clamping the day of month to the
// last valid day of the target month. n may be negative.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// MonthWindow returns the half-open interval covering a calendar month:
// [first-of-month, first-of-next-month).
func MonthWindow(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// MonthKey formats t as the YYYY-MM month key used in breakdowns.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ParseDate parses a date in YYYY-MM-DD form or, failing that, RFC 3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrMalformedDate
}
