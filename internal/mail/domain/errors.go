package domain

import "errors"

var (
	// ErrMalformedInput is returned when a message is missing its message id
	// or sender address. Such a row could never be deduplicated or merged, so
	// ingestion refuses it instead of storing a partial record.
	ErrMalformedInput = errors.New("malformed message input")

	// ErrStorage wraps failures from the persistence layer. The caller (the
	// polling loop) decides whether to retry the message later; the core does
	// not retry storage calls itself.
	ErrStorage = errors.New("storage unavailable")
)
