package core

// CallState tracks a query call through its lifecycle. A successful call
// moves through executing, retrieving and archived; failures and cancels are
// terminal.
type CallState int

const (
	CallStateUnknown CallState = iota
	CallStateExecuting
	CallStateExecutingFailed
	CallStateRetrieving
	CallStateRetrievingFailed
	CallStateArchived
	CallStateArchiveFailed
	CallStateCanceled
)

func CallStateFromString(s string) CallState {
	switch s {
	case CallStateExecuting.String():
		return CallStateExecuting
	case CallStateExecutingFailed.String():
		return CallStateExecutingFailed

	case CallStateRetrieving.String():
		return CallStateRetrieving
	case CallStateRetrievingFailed.String():
		return CallStateRetrievingFailed

	case CallStateArchived.String():
		return CallStateArchived
	case CallStateArchiveFailed.String():
		return CallStateArchiveFailed

	case CallStateCanceled.String():
		return CallStateCanceled

	default:
		return CallStateUnknown
	}
}

func (s CallState) String() string {
	switch s {
	case CallStateExecuting:
		return "executing"
	case CallStateExecutingFailed:
		return "executing_failed"

	case CallStateRetrieving:
		return "retrieving"
	case CallStateRetrievingFailed:
		return "retrieving_failed"

	case CallStateArchived:
		return "archived"
	case CallStateArchiveFailed:
		return "archive_failed"

	case CallStateCanceled:
		return "canceled"

	default:
		return "unknown"
	}
}

// IsFailure reports whether the state is one of the terminal failure states.
func (s CallState) IsFailure() bool {
	return s == CallStateExecutingFailed ||
		s == CallStateRetrievingFailed ||
		s == CallStateArchiveFailed ||
		s == CallStateCanceled
}
