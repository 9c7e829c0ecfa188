package mirror

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/internal/db"
	"github.com/vendo-org/vendo/internal/model"
	"github.com/vendo-org/vendo/internal/obs"
)

const flushBatch = 100

// SaleSource feeds the replicator with not-yet-mirrored ledger entries.
type SaleSource interface {
	ListUnmirrored(limit int) ([]model.Sale, error)
	MarkMirrored(ids []uint) error
}

type DBSaleSource struct{}

func (DBSaleSource) ListUnmirrored(limit int) ([]model.Sale, error) {
	return db.ListUnmirroredSales(limit)
}

func (DBSaleSource) MarkMirrored(ids []uint) error {
	return db.MarkSalesMirrored(ids)
}

// Heartbeat is the periodic device status pushed to the cloud mirror.
type Heartbeat struct {
	HardwareID     string `json:"hardware_id"`
	DeviceName     string `json:"device_name"`
	ActiveSessions int    `json:"active_sessions"`
	CanOperate     bool   `json:"can_operate"`
	Timestamp      int64  `json:"timestamp"`
}

// StatusFunc produces the current heartbeat payload.
type StatusFunc func() Heartbeat

// Mirror replicates completed sales append-only and heartbeats device status
// to the cloud. Everything here is outbound, best-effort and fire-and-
// forget: failures are logged and retried on the next cycle, never blocking
// local session granting.
type Mirror struct {
	client   *resty.Client
	sales    SaleSource
	status   StatusFunc
	interval time.Duration
	metrics  *obs.Metrics
}

func New(baseURL string, timeout, interval time.Duration, sales SaleSource, status StatusFunc, metrics *obs.Metrics) *Mirror {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Mirror{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		sales:    sales,
		status:   status,
		interval: interval,
		metrics:  metrics,
	}
}

func (m *Mirror) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.heartbeatOnce(ctx)
			m.flushOnce(ctx)
		}
	}
}

func (m *Mirror) heartbeatOnce(ctx context.Context) {
	hb := m.status()
	err := retry.Do(
		func() error {
			resp, err := m.client.R().SetContext(ctx).SetBody(hb).Post("/v1/devices/heartbeat")
			if err != nil {
				return err
			}
			if resp.StatusCode() >= 400 {
				return errors.Errorf("mirror returned %d", resp.StatusCode())
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.WithError(err).Debug("heartbeat failed, will retry next cycle")
	}
}

func (m *Mirror) flushOnce(ctx context.Context) {
	sales, err := m.sales.ListUnmirrored(flushBatch)
	if err != nil {
		log.WithError(err).Error("failed list unmirrored sales")
		return
	}
	if len(sales) == 0 {
		return
	}

	err = retry.Do(
		func() error {
			resp, err := m.client.R().SetContext(ctx).SetBody(sales).Post("/v1/sales")
			if err != nil {
				return err
			}
			if resp.StatusCode() >= 400 {
				return errors.Errorf("mirror returned %d", resp.StatusCode())
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		m.metrics.IncMirrorFlush("fail")
		log.WithError(err).Warn("sales replication failed, will retry next cycle")
		return
	}

	ids := make([]uint, len(sales))
	for i := range sales {
		ids[i] = sales[i].ID
	}
	if err := m.sales.MarkMirrored(ids); err != nil {
		log.WithError(err).Error("failed mark sales mirrored")
		return
	}
	m.metrics.IncMirrorFlush("success")
	log.WithField("count", len(sales)).Debug("sales replicated to mirror")
}
