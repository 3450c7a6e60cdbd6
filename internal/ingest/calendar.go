package ingest

import "time"

// normalizeDate truncates a timestamp to its UTC calendar date.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isWeekend reports whether the exchange is closed for the fixed weekly
// holiday. Exchange-specific holidays are not modeled here; they surface
// as ErrNotTrading from the fetcher instead.
func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// datesInRange enumerates every calendar date from from to to inclusive,
// ascending. Weekends are included; the orchestrator decides what to do
// with them.
func datesInRange(from, to time.Time) []time.Time {
	from, to = normalizeDate(from), normalizeDate(to)

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
