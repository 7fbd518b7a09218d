// Package schedule computes daily trigger times and guards the broadcast
// send window.
package schedule

import "time"

// NextRun returns the next occurrence of hour:minute in loc at or after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// WithinSendWindow reports whether now falls inside the tolerance window
// around the scheduled send time. External cron triggers fire in UTC and
// drift across DST transitions; anything outside the window is a stray
// duplicate trigger and must be skipped.
func WithinSendWindow(now time.Time, hour, minute int, before, after time.Duration, loc *time.Location) bool {
	local := now.In(loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	return !local.Before(target.Add(-before)) && !local.After(target.Add(after))
}
