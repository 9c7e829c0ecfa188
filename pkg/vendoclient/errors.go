package vendoclient

import (
	"errors"
	"fmt"
	"time"
)

// ErrTokenGone means the server answered 404: the token maps to no live
// session and the stored credential should be discarded.
var ErrTokenGone = errors.New("session token no longer valid")

// SlotBusyError means another credit for the slot is in flight; retry after
// the hinted delay.
type SlotBusyError struct {
	SlotID     string
	RetryAfter time.Duration
}

func (e *SlotBusyError) Error() string {
	return fmt.Sprintf("slot %s busy, retry after %s", e.SlotID, e.RetryAfter)
}

// UnresolvableError means the server could not resolve the client identity
// yet (503). Keep the token and retry with backoff.
type UnresolvableError struct {
	RetryAfter time.Duration
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("client identity unresolvable, retry after %s", e.RetryAfter)
}

// UnexpectedStatusError reports a response outside the API contract.
type UnexpectedStatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}
