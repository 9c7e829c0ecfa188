package credit

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/internal/coinlock"
	"github.com/vendo-org/vendo/internal/db"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/license"
	"github.com/vendo-org/vendo/internal/model"
	"github.com/vendo-org/vendo/internal/obs"
	"github.com/vendo-org/vendo/internal/rates"
	"github.com/vendo-org/vendo/internal/registry"
	"github.com/vendo-org/vendo/pkg/utils"
)

// SaleRecorder appends completed credits to the local ledger.
type SaleRecorder interface {
	Record(s *model.Sale) error
}

// DBSaleRecorder is the gorm-backed ledger.
type DBSaleRecorder struct{}

func (DBSaleRecorder) Record(s *model.Sale) error { return db.CreateSale(s) }

// Request is one credit event reported by a slot controller or the voucher
// flow. DeviceID scopes the pricing table; LockID, when set, adopts a lock
// the controller pre-acquired instead of taking a fresh one.
type Request struct {
	ClientID string
	DeviceID string
	Origin   model.PaymentOrigin
	Amount   int
	LockID   string
}

// Result of a processed credit. Refund tells the coin-handling layer to give
// the money back: the credit was accepted physically but could not be turned
// into session time.
type Result struct {
	Token            string
	GrantedSeconds   int64
	RemainingSeconds int64
	Refund           bool
}

// Service runs the credit pipeline: slot lock, rate resolution, license
// gate, session grant, sale record. The slot lock is released on every path,
// success or failure.
type Service struct {
	locks   *coinlock.Manager
	rates   *rates.Resolver
	reg     *registry.Registry
	gate    *license.Gatekeeper
	sales   SaleRecorder
	metrics *obs.Metrics
}

func NewService(locks *coinlock.Manager, resolver *rates.Resolver, reg *registry.Registry,
	gate *license.Gatekeeper, sales SaleRecorder, metrics *obs.Metrics) *Service {
	return &Service{
		locks:   locks,
		rates:   resolver,
		reg:     reg,
		gate:    gate,
		sales:   sales,
		metrics: metrics,
	}
}

// Process turns a credit event into session time, at most once per physical
// coin event. Rejected credits (busy slot, no matching rate, gate closed)
// always release the lock and instruct the coin layer to refund; credits are
// never silently banked.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	if req.Origin.Kind == model.OriginCoin {
		lockID := req.LockID
		if lockID == "" {
			lock, err := s.locks.Acquire(req.Origin.SlotID, req.ClientID)
			if err != nil {
				s.metrics.IncCredit(obs.ResultBusy)
				return &Result{Refund: true}, err
			}
			lockID = lock.LockID
		} else if _, err := s.locks.Adopt(req.Origin.SlotID, lockID); err != nil {
			// The lock id is not the current holder (already released or
			// consumed): a retransmitted report must not credit twice.
			s.metrics.IncCredit(obs.ResultBusy)
			return &Result{Refund: true}, err
		}
		defer func() {
			if err := s.locks.Release(req.Origin.SlotID, lockID); err != nil &&
				!errors.Is(err, errs.LockNotFound) {
				log.WithError(err).Error("failed release slot lock")
			}
		}()
	}

	if req.ClientID == "" {
		return nil, errors.New("client id required")
	}
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	rate, err := s.rates.Resolve(req.DeviceID, req.Amount)
	if err != nil {
		if errors.Is(err, errs.NoMatchingRate) {
			// Configuration gap: surface to the operator, refund the coin.
			s.metrics.IncCredit(obs.ResultNoRate)
			log.WithFields(log.Fields{
				"device": req.DeviceID,
				"amount": req.Amount,
			}).Warn("no rate configured for paid amount")
		} else {
			s.metrics.IncCredit(obs.ResultError)
		}
		return &Result{Refund: true}, err
	}

	if !s.gate.CanOperate() {
		s.metrics.IncCredit(obs.ResultNotOperable)
		return &Result{Refund: true}, errors.WithStack(errs.NotOperable)
	}

	token, remaining, err := s.reg.CreateOrExtend(req.ClientID, req.Origin, req.Amount, rate)
	if err != nil {
		s.metrics.IncCredit(obs.ResultError)
		return &Result{Refund: true}, err
	}

	sale := &model.Sale{
		Token:     token,
		ClientID:  req.ClientID,
		DeviceID:  req.DeviceID,
		SlotID:    req.Origin.SlotID,
		Origin:    req.Origin.Kind,
		Amount:    req.Amount,
		Seconds:   rate.Seconds(),
		CreatedAt: s.nowUnix(),
	}
	if err := s.sales.Record(sale); err != nil {
		// The grant stands; only the ledger entry is lost locally.
		log.WithError(err).Error("failed record sale")
	}

	s.metrics.IncCredit(obs.ResultGranted)
	log.WithFields(log.Fields{
		"client":  utils.MaskIdentity(req.ClientID),
		"slot":    req.Origin.SlotID,
		"amount":  req.Amount,
		"granted": rate.Seconds(),
	}).Info("credit granted")

	return &Result{
		Token:            token,
		GrantedSeconds:   rate.Seconds(),
		RemainingSeconds: remaining,
	}, nil
}

func (s *Service) nowUnix() int64 {
	return timeNow().Unix()
}
