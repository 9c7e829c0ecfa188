package errs

import "errors"

var (
	// SlotBusy means another credit for the same physical slot is still in
	// flight. Transient: the caller may retry after the lock is released or
	// reclaimed.
	SlotBusy = errors.New("coin slot busy")

	// LockNotFound is returned by release when no matching lock exists. The
	// HTTP surface treats this as an idempotent no-op.
	LockNotFound = errors.New("slot lock not found")

	SessionNotFound = errors.New("session not found")
	NotPausable     = errors.New("session not pausable")

	// ClientConflict means the target client identity is already bound to a
	// different active session.
	ClientConflict = errors.New("client identity already has a session")

	// Unresolvable means the client identity cannot be determined right now,
	// a known transient condition after a link change. Callers must retry
	// with backoff and must not discard the bearer token.
	Unresolvable = errors.New("client identity temporarily unresolvable")

	NoMatchingRate = errors.New("no matching rate for amount")

	InvalidKey            = errors.New("invalid license key")
	AlreadyBoundElsewhere = errors.New("license key bound to another device")
	RemoteUnreachable     = errors.New("license authority unreachable")

	// NotOperable means the license gate forbids new grants. Sessions that
	// already exist keep counting down.
	NotOperable = errors.New("device not licensed to grant access")
)
