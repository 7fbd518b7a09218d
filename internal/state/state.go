// Package state persists the bot's poll and broadcast markers: the last
// processed Telegram update id and the date of the last daily broadcast.
package state

// Store is the persistence boundary for poll/broadcast state. A missing or
// unreadable value is reported through the ok flag, never as an error.
type Store interface {
	// LastUpdateID returns the last processed update id. ok is false when
	// no id has been recorded yet.
	LastUpdateID() (id int64, ok bool, err error)
	// SetLastUpdateID records the last processed update id.
	SetLastUpdateID(id int64) error

	// LastBroadcastDate returns the date ("2006-01-02") of the last daily
	// broadcast, or an empty string when none has been recorded.
	LastBroadcastDate() (string, error)
	// SetLastBroadcastDate records the date of a successful broadcast.
	SetLastBroadcastDate(date string) error

	Close() error
}
