// Package aicityerr defines the typed error taxonomy shared across AIcity's
// subsystems so callers can branch on failure kind with errors.Is instead of
// string matching.
package aicityerr

import "errors"

// Sentinel errors. Wrap with fmt.Errorf("...: %w", Err...) to add context.
var (
	// ErrInsufficientFunds is returned when a ledger debit would take a
	// balance negative. Local-recoverable: the caller rejects the action
	// and the agent keeps its turn.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvariantViolation signals a broken core invariant (conservation,
	// non-negative balance, wealth cap). Fatal: halts the current tick.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrReasoningTimeout is returned when a reasoning-model call exceeds
	// its deadline. Policy: fall back to the role-default action.
	ErrReasoningTimeout = errors.New("reasoning call timed out")

	// ErrParseFailure is returned when a reasoning-model response cannot be
	// parsed into a structured decision. Policy: fall back to the
	// role-default action.
	ErrParseFailure = errors.New("could not parse reasoning response")

	// ErrStorageWrite signals a persistence layer write failure. Policy:
	// retry with backoff up to a configured limit, then halt the tick.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrBroadcastOverflow is returned when an observer's outgoing queue is
	// full. Policy: drop the event for that observer and mark it
	// resync-required.
	ErrBroadcastOverflow = errors.New("observer broadcast queue full")

	// ErrConflict signals a state transition that is no longer valid given
	// concurrent mutation (e.g. reopening an already-reopened case).
	// Policy: reject and log, caller may retry with fresh state.
	ErrConflict = errors.New("conflicting state transition")

	// ErrUnauthorized is returned by admin-gated operations presented
	// without a valid bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAuthorizationFailure is returned when a guarded operation (mint) is
	// invoked without the matching authorization token. Policy: reject,
	// log at high severity, never silently proceed.
	ErrAuthorizationFailure = errors.New("authorization failure")
)
