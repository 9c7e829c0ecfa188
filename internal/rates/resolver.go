package rates

import (
	"time"

	"github.com/Xhofe/go-cache"
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/db"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/model"
)

// Resolver maps (device, amount paid) to a pricing rule. Resolution is pure:
// no mutation, safe to call redundantly, safe to retry. Pricing tables are
// read through a short-lived cache so admin edits show up without a restart
// while the hot path stays off the database.
type Resolver struct {
	tables cache.ICache[[]model.Rate]
	ttl    time.Duration
	source func(deviceID string) ([]model.Rate, error)
}

func NewResolver(ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Resolver{
		tables: cache.NewMemCache(cache.WithShards[[]model.Rate](4)),
		ttl:    ttl,
		source: db.ListRatesByDevice,
	}
}

// NewResolverWithSource is for callers that supply their own pricing tables,
// mainly tests.
func NewResolverWithSource(ttl time.Duration, source func(string) ([]model.Rate, error)) *Resolver {
	r := NewResolver(ttl)
	r.source = source
	return r
}

// Resolve selects the rate whose amount equals amountPaid exactly. Partial
// or accumulated amounts are the caller's responsibility to pre-aggregate.
func (r *Resolver) Resolve(deviceID string, amountPaid int) (*model.Rate, error) {
	table, ok := r.tables.Get(deviceID)
	if !ok {
		var err error
		table, err = r.source(deviceID)
		if err != nil {
			return nil, errors.WithMessage(err, "failed load pricing table")
		}
		r.tables.Set(deviceID, table, cache.WithEx[[]model.Rate](r.ttl))
	}
	return Match(table, amountPaid)
}

// Invalidate drops the cached pricing table for a device after an edit.
func (r *Resolver) Invalidate(deviceID string) {
	r.tables.Del(deviceID)
}

// Match picks the matching rate from a table. When several rates match the
// same amount (a configuration error), the tie-break is deterministic:
// highest Priority wins, then the most recently defined rule (newest
// CreatedAt, then highest ID).
func Match(table []model.Rate, amountPaid int) (*model.Rate, error) {
	var best *model.Rate
	for i := range table {
		rt := &table[i]
		if rt.Amount != amountPaid {
			continue
		}
		if best == nil || betterMatch(rt, best) {
			best = rt
		}
	}
	if best == nil {
		return nil, errors.WithStack(errs.NoMatchingRate)
	}
	out := *best
	return &out, nil
}

func betterMatch(a, b *model.Rate) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID > b.ID
}
