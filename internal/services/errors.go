package services

import "errors"

// Command rejection conditions. All are recoverable by the caller and
// are reported only to the originating connection, never broadcast.
var (
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrPollNotAcceptingVotes = errors.New("poll is not accepting votes")
	ErrStaleQuestion         = errors.New("vote targets a question that is no longer active")
	ErrInvalidOption         = errors.New("option does not belong to question")

	// ErrInvalidPayload covers transport-level failures: malformed
	// messages, missing fields, bad voter identifiers.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Rejection codes carried on error acknowledgments.
const (
	CodeForbidden             = "forbidden"
	CodeNotFound              = "not_found"
	CodeInvalidTransition     = "invalid_transition"
	CodePollNotAcceptingVotes = "poll_not_accepting_votes"
	CodeStaleQuestion         = "stale_question"
	CodeInvalidOption         = "invalid_option"
	CodeInvalidPayload        = "invalid_payload"
	CodeInternal              = "internal"
)

// RejectionCode maps an error to its wire code. Unrecognized errors
// (store timeouts, panics) collapse to CodeInternal, which callers may
// treat as retryable since votes are idempotent.
func RejectionCode(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrPollNotAcceptingVotes):
		return CodePollNotAcceptingVotes
	case errors.Is(err, ErrStaleQuestion):
		return CodeStaleQuestion
	case errors.Is(err, ErrInvalidOption):
		return CodeInvalidOption
	case errors.Is(err, ErrInvalidPayload):
		return CodeInvalidPayload
	default:
		return CodeInternal
	}
}
