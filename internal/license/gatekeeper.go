package license

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/model"
)

// Gatekeeper decides whether the device may grant new access. It gates only
// new grants: sessions created while the device was licensed or trialing
// keep counting down whatever the gate says afterwards.
type Gatekeeper struct {
	mu        sync.Mutex
	state     *model.LicenseState
	store     Store
	remote    RemoteAuthority
	publicKey string
	trialDays int
	now       func() time.Time
}

func NewGatekeeper(store Store, remote RemoteAuthority, publicKey string, trialDays int) *Gatekeeper {
	if trialDays <= 0 {
		trialDays = 7
	}
	return &Gatekeeper{
		store:     store,
		remote:    remote,
		publicKey: publicKey,
		trialDays: trialDays,
		now:       time.Now,
	}
}

// Bootstrap loads the persisted record or, on first boot, starts the trial.
func (g *Gatekeeper) Bootstrap(hardwareID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, err := g.store.Load()
	if err != nil {
		return errors.WithMessage(err, "failed load license state")
	}
	if st == nil {
		st = &model.LicenseState{
			HardwareID: hardwareID,
			Status:     model.LicenseTrialActive,
			TrialStart: g.now().Unix(),
			TrialDays:  g.trialDays,
		}
		if err := g.store.Save(st); err != nil {
			return errors.WithMessage(err, "failed start trial")
		}
		log.WithField("days", g.trialDays).Info("trial started")
	}
	g.state = st
	g.refreshLocked()
	return nil
}

// CanOperate derives the gate purely from the current state. Before
// Bootstrap has loaded a record the gate stays closed.
func (g *Gatekeeper) CanOperate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == nil {
		return false
	}
	g.refreshLocked()
	return g.state.Status == model.LicenseTrialActive ||
		g.state.Status == model.LicenseLicensed
}

// Status returns a copy of the current record, or a zero record before
// Bootstrap.
func (g *Gatekeeper) Status() model.LicenseState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == nil {
		return model.LicenseState{}
	}
	g.refreshLocked()
	return *g.state
}

// DaysRemaining reports full days left in the trial or on the license: zero
// when already expired, -1 when a licensed record carries no expiry at all.
func (g *Gatekeeper) DaysRemaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == nil {
		return 0
	}
	g.refreshLocked()
	now := g.now().Unix()
	var until int64
	switch g.state.Status {
	case model.LicenseTrialActive:
		until = g.state.TrialStart + int64(g.state.TrialDays)*86400
	case model.LicenseLicensed:
		if g.state.ExpiresAt == 0 {
			return -1
		}
		until = g.state.ExpiresAt
	}
	if until <= now {
		return 0
	}
	return int((until - now) / 86400)
}

// Activate binds a license key to this device. The key is first checked
// offline, then bound at the remote authority. When the authority is
// unreachable, a previously cached successful activation of the same key is
// accepted instead of hard-failing.
func (g *Gatekeeper) Activate(ctx context.Context, key string) error {
	if err := VerifyKey(key, g.publicKey); err != nil {
		return err
	}

	g.mu.Lock()
	if g.state == nil {
		g.mu.Unlock()
		return errors.New("license state not loaded")
	}
	hwid := g.state.HardwareID
	cachedOK := g.state.LicenseKey == key && g.state.LastRemoteOK
	g.mu.Unlock()

	res, err := g.remote.Bind(ctx, key, hwid)
	if err != nil {
		if errors.Is(err, errs.RemoteUnreachable) && cachedOK {
			log.Warn("license authority unreachable, accepting cached activation")
			g.transition(model.LicenseLicensed, key, 0, false)
			return nil
		}
		return err
	}

	switch res.Status {
	case BindOK:
		g.transition(model.LicenseLicensed, key, res.ExpiresAt, true)
		log.Info("license activated")
		return nil
	case BindElsewhere:
		return errors.WithStack(errs.AlreadyBoundElsewhere)
	default:
		return errors.WithStack(errs.InvalidKey)
	}
}

// Reconcile re-checks the bind with the remote authority. Revocation applies
// only to future grants; nothing here touches the session registry. On
// transport failure the last known good state stands.
func (g *Gatekeeper) Reconcile(ctx context.Context) {
	g.mu.Lock()
	if g.state == nil {
		g.mu.Unlock()
		return
	}
	key := g.state.LicenseKey
	hwid := g.state.HardwareID
	status := g.state.Status
	g.mu.Unlock()

	if key == "" || (status != model.LicenseLicensed && status != model.LicenseRevoked) {
		return
	}

	res, err := g.remote.Check(ctx, key, hwid)
	if err != nil {
		log.WithError(err).Warn("license reconcile failed, keeping cached state")
		return
	}
	switch res.Status {
	case BindOK:
		if status == model.LicenseRevoked {
			log.Info("license restored by remote authority")
		}
		g.transition(model.LicenseLicensed, key, res.ExpiresAt, true)
	default:
		if status != model.LicenseRevoked {
			log.WithField("status", res.Status).Warn("license revoked by remote authority")
		}
		g.transition(model.LicenseRevoked, key, 0, true)
	}
}

// Run drives periodic reconciliation until ctx is cancelled.
func (g *Gatekeeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			g.Reconcile(ctx)
		}
	}
}

func (g *Gatekeeper) transition(status, key string, expiresAt int64, remoteOK bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Status = status
	g.state.LicenseKey = key
	if expiresAt > 0 {
		g.state.ExpiresAt = expiresAt
	}
	if remoteOK {
		g.state.LastRemoteCheck = g.now().Unix()
		g.state.LastRemoteOK = true
	}
	g.saveLocked()
}

// refreshLocked applies time-driven transitions: trial running out, and a
// licensed record passing its expiry.
func (g *Gatekeeper) refreshLocked() {
	now := g.now().Unix()
	switch g.state.Status {
	case model.LicenseTrialActive:
		if now > g.state.TrialStart+int64(g.state.TrialDays)*86400 {
			g.state.Status = model.LicenseTrialExpired
			g.saveLocked()
			log.Info("trial expired")
		}
	case model.LicenseLicensed:
		if g.state.ExpiresAt > 0 && now > g.state.ExpiresAt {
			g.state.Status = model.LicenseRevoked
			g.saveLocked()
			log.Warn("license expired")
		}
	}
}

func (g *Gatekeeper) saveLocked() {
	if err := g.store.Save(g.state); err != nil {
		log.WithError(err).Error("failed persist license state")
	}
}
