package registry

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/model"
	"github.com/vendo-org/vendo/internal/obs"
	"github.com/vendo-org/vendo/pkg/utils"
)

// Registry is the authoritative table of active sessions. The arena is
// indexed by bearer token with a secondary index by client identity; one
// mutex serializes every mutation, so two credits for the same client can
// never interleave their read-modify-write.
type Registry struct {
	mu       sync.RWMutex
	byToken  map[string]*model.Session
	byClient map[string]string
	store    Store
	metrics  *obs.Metrics
	now      func() time.Time
}

func New(store Store, metrics *obs.Metrics) *Registry {
	if store == nil {
		store = NopStore{}
	}
	return &Registry{
		byToken:  make(map[string]*model.Session),
		byClient: make(map[string]string),
		store:    store,
		metrics:  metrics,
		now:      time.Now,
	}
}

// LoadActive rebuilds the arena from durable storage after a restart.
func (r *Registry) LoadActive() error {
	sessions, err := r.store.ListActive()
	if err != nil {
		return errors.WithMessage(err, "failed load active sessions")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range sessions {
		s := sessions[i]
		r.byToken[s.Token] = &s
		r.byClient[s.ClientID] = s.Token
	}
	r.metrics.SetSessionsActive(len(r.byToken))
	log.Infof("restored %d active sessions", len(sessions))
	return nil
}

// CreateOrExtend turns a resolved credit into session time. A client with no
// active session gets a new one with a fresh token; an existing session is
// extended by the granted duration. Bandwidth caps, pause permission and the
// owning slot follow the most recent top-up.
func (r *Registry) CreateOrExtend(clientID string, origin model.PaymentOrigin, amountPaid int, rate *model.Rate) (string, int64, error) {
	if clientID == "" {
		return "", 0, errors.New("client id required")
	}
	granted := rate.Seconds()
	now := r.now().Unix()

	r.mu.Lock()
	defer r.mu.Unlock()

	if token, ok := r.byClient[clientID]; ok {
		s := r.byToken[token]
		s.RemainingSeconds += granted
		s.AmountPaid += amountPaid
		s.SlotID = origin.SlotID
		s.Origin = origin.Kind
		s.PauseAllowed = rate.PauseAllowed
		if rate.DownKbps > 0 {
			s.DownKbps = rate.DownKbps
		}
		if rate.UpKbps > 0 {
			s.UpKbps = rate.UpKbps
		}
		s.UpdatedAt = now
		if err := r.store.Save(s); err != nil {
			log.WithError(err).Error("failed persist session extension")
		}
		return s.Token, s.RemainingSeconds, nil
	}

	s := &model.Session{
		Token:            utils.NewToken(),
		ClientID:         clientID,
		SlotID:           origin.SlotID,
		Origin:           origin.Kind,
		RemainingSeconds: granted,
		AmountPaid:       amountPaid,
		DownKbps:         rate.DownKbps,
		UpKbps:           rate.UpKbps,
		PauseAllowed:     rate.PauseAllowed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.byToken[s.Token] = s
	r.byClient[clientID] = s.Token
	r.metrics.SetSessionsActive(len(r.byToken))
	if err := r.store.Save(s); err != nil {
		log.WithError(err).Error("failed persist new session")
	}
	return s.Token, s.RemainingSeconds, nil
}

// Get returns a copy of the session for the token.
func (r *Registry) Get(token string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byToken[token]
	if !ok {
		return nil, errors.WithStack(errs.SessionNotFound)
	}
	cp := *s
	return &cp, nil
}

// GetByClient returns a copy of the session bound to the client identity.
func (r *Registry) GetByClient(clientID string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.byClient[clientID]
	if !ok {
		return nil, errors.WithStack(errs.SessionNotFound)
	}
	cp := *r.byToken[token]
	return &cp, nil
}

func (r *Registry) Pause(token string) error {
	return r.setPaused(token, true)
}

func (r *Registry) Resume(token string) error {
	return r.setPaused(token, false)
}

func (r *Registry) setPaused(token string, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byToken[token]
	if !ok {
		return errors.WithStack(errs.SessionNotFound)
	}
	if !s.PauseAllowed {
		return errors.WithStack(errs.NotPausable)
	}
	s.Paused = paused
	s.UpdatedAt = r.now().Unix()
	if err := r.store.Save(s); err != nil {
		log.WithError(err).Error("failed persist pause state")
	}
	return nil
}

// Rebind moves an existing session to a new client identity. Used only by
// the restorer when a client comes back with a changed network identity.
func (r *Registry) Rebind(token, newClientID string) error {
	if newClientID == "" {
		return errors.New("client id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byToken[token]
	if !ok {
		return errors.WithStack(errs.SessionNotFound)
	}
	if s.ClientID == newClientID {
		return nil
	}
	if other, ok := r.byClient[newClientID]; ok && other != token {
		return errors.WithStack(errs.ClientConflict)
	}
	delete(r.byClient, s.ClientID)
	r.byClient[newClientID] = token
	s.ClientID = newClientID
	s.UpdatedAt = r.now().Unix()
	if err := r.store.Save(s); err != nil {
		log.WithError(err).Error("failed persist session rebind")
	}
	return nil
}

// Terminate removes a session before natural expiry.
func (r *Registry) Terminate(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byToken[token]
	if !ok {
		return errors.WithStack(errs.SessionNotFound)
	}
	r.purgeLocked(s)
	return nil
}

// Tick is the single authoritative decrement path. It subtracts the elapsed
// interval from every non-paused session, clamps at zero, persists the new
// countdowns, and returns the sessions that just expired so collaborators
// (traffic-rule removal, sale finalization) can react.
func (r *Registry) Tick(elapsed time.Duration) []model.Session {
	secs := int64(elapsed / time.Second)
	if secs <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []model.Session
	dirty := make(map[string]int64, len(r.byToken))
	for _, s := range r.byToken {
		if s.Paused {
			continue
		}
		s.RemainingSeconds -= secs
		if s.RemainingSeconds <= 0 {
			s.RemainingSeconds = 0
			expired = append(expired, *s)
			continue
		}
		dirty[s.Token] = s.RemainingSeconds
	}
	for i := range expired {
		r.purgeLocked(r.byToken[expired[i].Token])
	}
	if err := r.store.FlushRemaining(dirty); err != nil {
		log.WithError(err).Error("failed flush session countdowns")
	}
	r.metrics.AddSessionsExpired(len(expired))
	return expired
}

func (r *Registry) purgeLocked(s *model.Session) {
	delete(r.byToken, s.Token)
	delete(r.byClient, s.ClientID)
	r.metrics.SetSessionsActive(len(r.byToken))
	if err := r.store.Delete(s.Token); err != nil {
		log.WithError(err).Error("failed delete session")
	}
}

// List returns a snapshot of all active sessions.
func (r *Registry) List() []model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Session, 0, len(r.byToken))
	for _, s := range r.byToken {
		out = append(out, *s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}
