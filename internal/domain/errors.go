package domain

import "errors"

var (
	// ErrConflict is returned when a conditional write lost a race. Callers
	// should refetch and retry rather than surface it as fatal.
	ErrConflict = errors.New("state version conflict")
	// ErrInvalidTransition is returned for control actions that are not legal
	// from the current game phase.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrDuplicateAnswer indicates a (user, question) pair was already scored.
	ErrDuplicateAnswer = errors.New("answer already recorded")
	// ErrAnswerClosed indicates a submission arrived after the server-side
	// recomputed deadline.
	ErrAnswerClosed = errors.New("answer window closed")
	// ErrDrawInProgress is returned while the lottery mutex flag is held.
	ErrDrawInProgress = errors.New("draw already in progress")
	// ErrNoEligibleParticipants is returned when the draw pool is empty.
	ErrNoEligibleParticipants = errors.New("no eligible participants")
	// ErrStaleSession signals a session id mismatch; clients must discard
	// local state and resync.
	ErrStaleSession = errors.New("stale session")
	// ErrQuestionNotFound indicates an unknown question id.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrRulesNotFound indicates no scoring rules row exists; callers fall
	// back to defaults.
	ErrRulesNotFound = errors.New("scoring rules not found")
	// ErrUnavailable wraps store failures so nothing in this core crashes the
	// process.
	ErrUnavailable = errors.New("state store unavailable")
)
