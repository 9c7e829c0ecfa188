package restore

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/obs"
	"github.com/vendo-org/vendo/internal/registry"
	"github.com/vendo-org/vendo/pkg/retrypolicy"
	"github.com/vendo-org/vendo/pkg/utils"
)

// Outcome of a successful restoration.
type Outcome int

const (
	// Restored: the session is already bound to the presented identity.
	Restored Outcome = iota
	// Migrated: the session existed under a stale identity and was rebound.
	Migrated
)

func (o Outcome) String() string {
	if o == Migrated {
		return "migrated"
	}
	return "restored"
}

// Restorer reconciles a previously issued bearer token against a client
// whose network identity may have changed since the session was granted.
//
// The errs.Unresolvable / errs.SessionNotFound distinction is the load-
// bearing part: Unresolvable means the caller's environment could not
// determine the client identity yet (a known transient right after a link
// change) and the token must be kept and retried; SessionNotFound means the
// token maps to no live session and may be discarded.
type Restorer struct {
	reg     *registry.Registry
	metrics *obs.Metrics
}

func New(reg *registry.Registry, metrics *obs.Metrics) *Restorer {
	return &Restorer{reg: reg, metrics: metrics}
}

// Restore is idempotent: the same token with the same resolved identity
// yields Restored every time with no duration change.
func (r *Restorer) Restore(token, currentClientID string) (Outcome, error) {
	if currentClientID == "" {
		r.metrics.IncRestore("unresolvable")
		return 0, errors.WithStack(errs.Unresolvable)
	}
	s, err := r.reg.Get(token)
	if err != nil {
		r.metrics.IncRestore("not_found")
		return 0, err
	}
	if s.ClientID == currentClientID {
		r.metrics.IncRestore("restored")
		return Restored, nil
	}
	if err := r.reg.Rebind(token, currentClientID); err != nil {
		return 0, err
	}
	r.metrics.IncRestore("migrated")
	log.WithFields(log.Fields{
		"from": utils.MaskIdentity(s.ClientID),
		"to":   utils.MaskIdentity(currentClientID),
	}).Info("session migrated to new client identity")
	return Migrated, nil
}

// RestoreWithRetry re-resolves the client identity under the shared bounded
// policy for in-process callers (the portal resolves identity from its
// neighbor table, which is briefly empty after a reconnect).
func (r *Restorer) RestoreWithRetry(ctx context.Context, token string, resolve func(context.Context) (string, error), pol retrypolicy.Policy) (Outcome, error) {
	var out Outcome
	err := pol.Do(ctx, func() error {
		clientID, err := resolve(ctx)
		if err != nil || clientID == "" {
			return errors.WithStack(errs.Unresolvable)
		}
		out, err = r.Restore(token, clientID)
		return err
	}, func(err error) bool {
		return errors.Is(err, errs.Unresolvable)
	})
	return out, err
}
