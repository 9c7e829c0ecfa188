package license

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/model"
)

type memStore struct {
	st *model.LicenseState
}

func (m *memStore) Load() (*model.LicenseState, error) {
	return m.st, nil
}

func (m *memStore) Save(st *model.LicenseState) error {
	cp := *st
	m.st = &cp
	return nil
}

type fakeRemote struct {
	bind     *BindResult
	check    *BindResult
	err      error
	bindCnt  int
	checkCnt int
}

func (f *fakeRemote) Bind(_ context.Context, _, _ string) (*BindResult, error) {
	f.bindCnt++
	return f.bind, f.err
}

func (f *fakeRemote) Check(_ context.Context, _, _ string) (*BindResult, error) {
	f.checkCnt++
	return f.check, f.err
}

func newGate(t *testing.T, remote RemoteAuthority, at time.Time) (*Gatekeeper, *memStore) {
	t.Helper()
	store := &memStore{}
	g := NewGatekeeper(store, remote, "", 7)
	g.now = func() time.Time { return at }
	require.NoError(t, g.Bootstrap("hw-test"))
	return g, store
}

func TestTrialLifecycle(t *testing.T) {
	t0 := time.Now()
	g, store := newGate(t, &fakeRemote{}, t0)

	require.Equal(t, model.LicenseTrialActive, g.Status().Status)
	require.True(t, g.CanOperate())
	require.Equal(t, 7, g.DaysRemaining())

	// trial started at T0 with a 7-day window; at T0+8d the gate is closed
	g.now = func() time.Time { return t0.Add(8 * 24 * time.Hour) }
	require.False(t, g.CanOperate())
	require.Equal(t, model.LicenseTrialExpired, g.Status().Status)
	require.Zero(t, g.DaysRemaining())

	// the transition is persisted, not just in memory
	require.Equal(t, model.LicenseTrialExpired, store.st.Status)
}

func TestActivateFromTrial(t *testing.T) {
	remote := &fakeRemote{bind: &BindResult{Status: BindOK}}
	g, _ := newGate(t, remote, time.Now())

	require.NoError(t, g.Activate(context.Background(), "key-1"))
	require.Equal(t, model.LicenseLicensed, g.Status().Status)
	require.True(t, g.CanOperate())
	require.Equal(t, 1, remote.bindCnt)
}

func TestActivateAfterTrialExpiry(t *testing.T) {
	t0 := time.Now()
	remote := &fakeRemote{bind: &BindResult{Status: BindOK}}
	g, _ := newGate(t, remote, t0)

	g.now = func() time.Time { return t0.Add(10 * 24 * time.Hour) }
	require.False(t, g.CanOperate())

	require.NoError(t, g.Activate(context.Background(), "key-1"))
	require.True(t, g.CanOperate())
}

func TestActivateBoundElsewhere(t *testing.T) {
	remote := &fakeRemote{bind: &BindResult{Status: BindElsewhere}}
	g, _ := newGate(t, remote, time.Now())

	before := g.CanOperate()
	err := g.Activate(context.Background(), "key-1")
	require.ErrorIs(t, err, errs.AlreadyBoundElsewhere)
	require.Equal(t, before, g.CanOperate(), "failed activation leaves the gate unchanged")
	require.Equal(t, model.LicenseTrialActive, g.Status().Status)
}

func TestActivateInvalid(t *testing.T) {
	remote := &fakeRemote{bind: &BindResult{Status: BindInvalid}}
	g, _ := newGate(t, remote, time.Now())

	err := g.Activate(context.Background(), "key-1")
	require.ErrorIs(t, err, errs.InvalidKey)
}

func TestActivateRemoteUnreachable(t *testing.T) {
	remote := &fakeRemote{err: errors.WithStack(errs.RemoteUnreachable)}
	g, _ := newGate(t, remote, time.Now())

	// no cached activation: hard failure
	err := g.Activate(context.Background(), "key-1")
	require.ErrorIs(t, err, errs.RemoteUnreachable)
}

func TestActivateFallsBackToCachedActivation(t *testing.T) {
	t0 := time.Now()
	remote := &fakeRemote{bind: &BindResult{Status: BindOK}}
	g, _ := newGate(t, remote, t0)
	require.NoError(t, g.Activate(context.Background(), "key-1"))

	// authority becomes unreachable; re-activating the same key succeeds
	// from the cached record
	remote.err = errors.WithStack(errs.RemoteUnreachable)
	remote.bind = nil
	require.NoError(t, g.Activate(context.Background(), "key-1"))
	require.True(t, g.CanOperate())

	// a different key gets no such benefit
	err := g.Activate(context.Background(), "key-2")
	require.ErrorIs(t, err, errs.RemoteUnreachable)
}

func TestReconcileRevokesAndRestores(t *testing.T) {
	remote := &fakeRemote{
		bind:  &BindResult{Status: BindOK},
		check: &BindResult{Status: BindRevoked},
	}
	g, _ := newGate(t, remote, time.Now())
	require.NoError(t, g.Activate(context.Background(), "key-1"))

	g.Reconcile(context.Background())
	require.Equal(t, model.LicenseRevoked, g.Status().Status)
	require.False(t, g.CanOperate())

	// re-activation succeeds and reopens the gate
	require.NoError(t, g.Activate(context.Background(), "key-1"))
	require.Equal(t, model.LicenseLicensed, g.Status().Status)
	require.True(t, g.CanOperate())
}

func TestReconcileKeepsCachedStateOnFailure(t *testing.T) {
	remote := &fakeRemote{bind: &BindResult{Status: BindOK}}
	g, _ := newGate(t, remote, time.Now())
	require.NoError(t, g.Activate(context.Background(), "key-1"))

	remote.err = errors.WithStack(errs.RemoteUnreachable)
	g.Reconcile(context.Background())
	require.True(t, g.CanOperate(), "partition degrades to last known good state")
}

func TestReconcileSkipsTrial(t *testing.T) {
	remote := &fakeRemote{check: &BindResult{Status: BindRevoked}}
	g, _ := newGate(t, remote, time.Now())

	g.Reconcile(context.Background())
	require.Zero(t, remote.checkCnt, "trial devices have nothing to reconcile")
	require.True(t, g.CanOperate())
}

func TestGatekeeperBeforeBootstrap(t *testing.T) {
	remote := &fakeRemote{bind: &BindResult{Status: BindOK}}
	g := NewGatekeeper(&memStore{}, remote, "", 7)

	// every entry point must be safe before Bootstrap has run
	require.False(t, g.CanOperate())
	require.Equal(t, model.LicenseState{}, g.Status())
	require.Zero(t, g.DaysRemaining())
	g.Reconcile(context.Background())
	require.Error(t, g.Activate(context.Background(), "key-1"))
	require.Zero(t, remote.bindCnt)
}

func TestDaysRemainingDistinguishesPerpetual(t *testing.T) {
	t0 := time.Now()
	remote := &fakeRemote{bind: &BindResult{Status: BindOK}}
	g, _ := newGate(t, remote, t0)

	// a bind without an expiry is open-ended, not expired
	require.NoError(t, g.Activate(context.Background(), "key-1"))
	require.Equal(t, -1, g.DaysRemaining())
	require.True(t, g.CanOperate())

	// a dated bind counts down and hits zero at the boundary
	remote.bind = &BindResult{Status: BindOK, ExpiresAt: t0.Add(30 * 24 * time.Hour).Unix()}
	require.NoError(t, g.Activate(context.Background(), "key-1"))
	require.Equal(t, 30, g.DaysRemaining())
	g.now = func() time.Time { return t0.Add(29 * 24 * time.Hour) }
	require.Equal(t, 1, g.DaysRemaining())
}

func TestBootstrapLoadsExistingState(t *testing.T) {
	store := &memStore{st: &model.LicenseState{
		HardwareID: "hw-test",
		Status:     model.LicenseLicensed,
		LicenseKey: "key-1",
	}}
	g := NewGatekeeper(store, &fakeRemote{}, "", 7)
	require.NoError(t, g.Bootstrap("hw-test"))
	require.True(t, g.CanOperate())
	require.Equal(t, "key-1", g.Status().LicenseKey)
}

func TestVerifyKey(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pub := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	// a key signed by the authority passes the offline check
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Subject:   "lic-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(priv)
	require.NoError(t, err)
	require.NoError(t, VerifyKey(signed, pub))

	// garbage fails offline before any remote call
	require.ErrorIs(t, VerifyKey("not-a-jwt", pub), errs.InvalidKey)
	require.ErrorIs(t, VerifyKey("", ""), errs.InvalidKey)

	// a key signed by someone else fails too
	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Subject: "lic-1",
	}).SignedString(other)
	require.NoError(t, err)
	require.ErrorIs(t, VerifyKey(forged, pub), errs.InvalidKey)

	// no pinned key defers entirely to the remote authority
	require.NoError(t, VerifyKey("whatever", ""))
}
