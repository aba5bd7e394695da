// Package session acquires the short-lived access credential that
// session-gated marketplace APIs hide behind a client-rendered page. A
// credential is acquired per adapter invocation and discarded after the
// single request it authorizes.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrCredentialNotFound is returned when the expected cookie is absent after
// the entry page settles. It is fatal to the adapter invocation; retries, if
// any, belong to the caller.
var ErrCredentialNotFound = errors.New("session cookie not found after navigation")

// Credential is a short-lived bearer token. Never persisted, never reused
// across adapter invocations.
type Credential struct {
	Token      string
	AcquiredAt time.Time
}

// Provider obtains one Credential per call by driving a headless browser
// session. Implementations must release the browser context on every exit
// path, including failures during cookie extraction.
type Provider interface {
	Acquire(ctx context.Context) (Credential, error)
}
