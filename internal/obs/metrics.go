package obs

import "github.com/prometheus/client_golang/prometheus"

// Credit/lock/restore outcome labels.
const (
	ResultGranted     = "granted"
	ResultBusy        = "busy"
	ResultNoRate      = "no_rate"
	ResultNotOperable = "not_operable"
	ResultError       = "error"
)

type Metrics struct {
	CreditTotal      *prometheus.CounterVec // result=granted|busy|no_rate|not_operable|error
	LockAcquireTotal *prometheus.CounterVec // result=success|busy
	LocksHeld        prometheus.Gauge
	LocksReclaimed   prometheus.Counter
	SessionsActive   prometheus.Gauge
	SessionsExpired  prometheus.Counter
	RestoreTotal     *prometheus.CounterVec // outcome=restored|migrated|not_found|unresolvable
	MirrorFlushTotal *prometheus.CounterVec // result=success|fail
}

func NewMetrics() *Metrics {
	m := &Metrics{
		CreditTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendo_credit_total",
				Help: "Total credit events by result",
			},
			[]string{"result"},
		),
		LockAcquireTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendo_lock_acquire_total",
				Help: "Total slot lock acquire attempts by result",
			},
			[]string{"result"},
		),
		LocksHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vendo_locks_held",
			Help: "Number of currently held (unexpired) slot locks",
		}),
		LocksReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vendo_locks_reclaimed_total",
			Help: "Total slot locks reclaimed after timeout",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vendo_sessions_active",
			Help: "Number of active sessions",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vendo_sessions_expired_total",
			Help: "Total sessions that reached zero and were purged",
		}),
		RestoreTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendo_restore_total",
				Help: "Total restoration attempts by outcome",
			},
			[]string{"outcome"},
		),
		MirrorFlushTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendo_mirror_flush_total",
				Help: "Total cloud mirror flush attempts by result",
			},
			[]string{"result"},
		),
	}

	prometheus.MustRegister(
		m.CreditTotal,
		m.LockAcquireTotal,
		m.LocksHeld,
		m.LocksReclaimed,
		m.SessionsActive,
		m.SessionsExpired,
		m.RestoreTotal,
		m.MirrorFlushTotal,
	)

	return m
}

// All increment helpers tolerate a nil receiver so components can run
// without metrics in tests.

func (m *Metrics) IncCredit(result string) {
	if m == nil {
		return
	}
	m.CreditTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncLockAcquire(result string) {
	if m == nil {
		return
	}
	m.LockAcquireTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SetLocksHeld(n int) {
	if m == nil {
		return
	}
	m.LocksHeld.Set(float64(n))
}

func (m *Metrics) AddLocksReclaimed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LocksReclaimed.Add(float64(n))
}

func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

func (m *Metrics) AddSessionsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsExpired.Add(float64(n))
}

func (m *Metrics) IncRestore(outcome string) {
	if m == nil {
		return
	}
	m.RestoreTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncMirrorFlush(result string) {
	if m == nil {
		return
	}
	m.MirrorFlushTotal.WithLabelValues(result).Inc()
}
