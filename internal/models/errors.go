package models

import "errors"

// Error kinds used across package boundaries. Packages wrap these with
// fmt.Errorf("...: %w", ...) so callers can classify with errors.Is.
var (
	// ErrUpstream marks a transient failure talking to an external API:
	// network errors, non-2xx responses, or malformed payloads. The
	// orchestrator retries these with backoff.
	ErrUpstream = errors.New("upstream failure")

	// ErrNoDaf means the calendar has no Daf Yomi entry for the requested
	// date. Terminal for the day, not retried.
	ErrNoDaf = errors.New("no daf yomi entry for date")

	// ErrVideoNotFound means no series entry matched the daf reference.
	// Terminal for the day, not retried.
	ErrVideoNotFound = errors.New("video not found")

	// ErrDelivery marks a rejected send by the Telegram API.
	ErrDelivery = errors.New("message delivery failed")
)
