package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/model"
)

func newTestRegistry() *Registry {
	return New(NopStore{}, nil)
}

func rate5for300() *model.Rate {
	return &model.Rate{ID: 1, Amount: 5, Duration: 300, PauseAllowed: true}
}

func TestCreateThenExtend(t *testing.T) {
	reg := newTestRegistry()

	// slot 1 reports 5 on a device with rate {5 -> 300s}
	token, remaining, err := reg.CreateOrExtend("aa:bb:cc:dd:ee:01", model.CoinOrigin("slot1"), 5, rate5for300())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, int64(300), remaining)

	// after 150s elapsed the countdown reports 150s
	expired := reg.Tick(150 * time.Second)
	require.Empty(t, expired)
	s, err := reg.Get(token)
	require.NoError(t, err)
	require.Equal(t, int64(150), s.RemainingSeconds)

	// a second 5 credit extends to 450s on the same token
	token2, remaining, err := reg.CreateOrExtend("aa:bb:cc:dd:ee:01", model.CoinOrigin("slot2"), 5, rate5for300())
	require.NoError(t, err)
	require.Equal(t, token, token2)
	require.Equal(t, int64(450), remaining)

	s, err = reg.Get(token)
	require.NoError(t, err)
	require.Equal(t, 10, s.AmountPaid)
	require.Equal(t, "slot2", s.SlotID, "owning slot follows the most recent top-up")
}

func TestTickClampsAndPurges(t *testing.T) {
	reg := newTestRegistry()

	token, _, err := reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 5, rate5for300())
	require.NoError(t, err)

	// elapsed interval far beyond the remaining time: clamp at zero, purge
	expired := reg.Tick(1000 * time.Second)
	require.Len(t, expired, 1)
	require.Equal(t, token, expired[0].Token)
	require.Equal(t, int64(0), expired[0].RemainingSeconds, "remaining never goes negative")

	_, err = reg.Get(token)
	require.ErrorIs(t, err, errs.SessionNotFound)
	require.Zero(t, reg.Len())

	// expiry frees the client identity for a fresh session
	_, remaining, err := reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 5, rate5for300())
	require.NoError(t, err)
	require.Equal(t, int64(300), remaining)
}

func TestTickIsMonotonic(t *testing.T) {
	reg := newTestRegistry()
	token, _, err := reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 5, rate5for300())
	require.NoError(t, err)

	prev := int64(300)
	for i := 0; i < 5; i++ {
		reg.Tick(10 * time.Second)
		s, err := reg.Get(token)
		require.NoError(t, err)
		require.Less(t, s.RemainingSeconds, prev)
		require.GreaterOrEqual(t, s.RemainingSeconds, int64(0))
		prev = s.RemainingSeconds
	}
}

func TestPauseStopsCountdown(t *testing.T) {
	reg := newTestRegistry()
	token, _, err := reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 5, rate5for300())
	require.NoError(t, err)

	require.NoError(t, reg.Pause(token))
	expired := reg.Tick(100 * time.Second)
	require.Empty(t, expired)
	s, err := reg.Get(token)
	require.NoError(t, err)
	require.Equal(t, int64(300), s.RemainingSeconds, "paused sessions do not decrement")

	require.NoError(t, reg.Resume(token))
	reg.Tick(100 * time.Second)
	s, err = reg.Get(token)
	require.NoError(t, err)
	require.Equal(t, int64(200), s.RemainingSeconds)
}

func TestPauseDisallowedByRate(t *testing.T) {
	reg := newTestRegistry()
	rate := &model.Rate{ID: 1, Amount: 5, Duration: 300, PauseAllowed: false}
	token, _, err := reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 5, rate)
	require.NoError(t, err)

	require.ErrorIs(t, reg.Pause(token), errs.NotPausable)
	require.ErrorIs(t, reg.Pause("no-such-token"), errs.SessionNotFound)
}

func TestRebind(t *testing.T) {
	reg := newTestRegistry()
	token, _, err := reg.CreateOrExtend("old-id", model.CoinOrigin("slot1"), 5, rate5for300())
	require.NoError(t, err)

	require.NoError(t, reg.Rebind(token, "new-id"))
	s, err := reg.GetByClient("new-id")
	require.NoError(t, err)
	require.Equal(t, token, s.Token)
	_, err = reg.GetByClient("old-id")
	require.ErrorIs(t, err, errs.SessionNotFound)

	// rebinding to the identity it already has is a no-op
	require.NoError(t, reg.Rebind(token, "new-id"))

	require.ErrorIs(t, reg.Rebind("no-such-token", "x"), errs.SessionNotFound)
}

func TestRebindConflict(t *testing.T) {
	reg := newTestRegistry()
	tokenA, _, err := reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 5, rate5for300())
	require.NoError(t, err)
	_, _, err = reg.CreateOrExtend("client-b", model.CoinOrigin("slot2"), 5, rate5for300())
	require.NoError(t, err)

	require.ErrorIs(t, reg.Rebind(tokenA, "client-b"), errs.ClientConflict)
}

func TestTerminate(t *testing.T) {
	reg := newTestRegistry()
	token, _, err := reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 5, rate5for300())
	require.NoError(t, err)

	require.NoError(t, reg.Terminate(token))
	_, err = reg.Get(token)
	require.ErrorIs(t, err, errs.SessionNotFound)
	require.ErrorIs(t, reg.Terminate(token), errs.SessionNotFound)
}

func TestBandwidthFollowsLatestRate(t *testing.T) {
	reg := newTestRegistry()
	first := &model.Rate{ID: 1, Amount: 5, Duration: 300, DownKbps: 1024, UpKbps: 512}
	token, _, err := reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 5, first)
	require.NoError(t, err)

	second := &model.Rate{ID: 2, Amount: 10, Duration: 660, DownKbps: 2048, UpKbps: 1024}
	_, _, err = reg.CreateOrExtend("client-a", model.CoinOrigin("slot1"), 10, second)
	require.NoError(t, err)

	s, err := reg.Get(token)
	require.NoError(t, err)
	require.Equal(t, 2048, s.DownKbps)
	require.Equal(t, 1024, s.UpKbps)
}
