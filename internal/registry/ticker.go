package registry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/internal/model"
	"github.com/vendo-org/vendo/pkg/utils"
)

// ExpireFunc receives the sessions that just reached zero on a tick.
type ExpireFunc func(expired []model.Session)

// Ticker drives the registry countdown on a fixed wall-clock interval. Any
// client-side countdown display is advisory; this loop is authoritative.
type Ticker struct {
	reg      *Registry
	interval time.Duration
	onExpire ExpireFunc
}

func NewTicker(reg *Registry, interval time.Duration, onExpire ExpireFunc) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{reg: reg, interval: interval, onExpire: onExpire}
}

func (t *Ticker) Run(ctx context.Context) {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			expired := t.reg.Tick(t.interval)
			if len(expired) == 0 {
				continue
			}
			for i := range expired {
				log.WithFields(log.Fields{
					"client": utils.MaskIdentity(expired[i].ClientID),
					"paid":   expired[i].AmountPaid,
				}).Info("session expired")
			}
			if t.onExpire != nil {
				t.onExpire(expired)
			}
		}
	}
}
