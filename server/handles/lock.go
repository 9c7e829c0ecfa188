package handles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/coinlock"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/server/common"
)

type AcquireLockReq struct {
	SlotID string `json:"slot_id" binding:"required"`
	Owner  string `json:"owner"`
}

type LockResp struct {
	SlotID     string `json:"slot_id"`
	LockID     string `json:"lock_id"`
	AcquiredAt int64  `json:"acquired_at"`
	Expiry     int64  `json:"expiry"`
}

// AcquireLock lets a slot controller claim a slot before reporting the
// credit. 409 means another credit for the slot is in flight.
func AcquireLock(locks *coinlock.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AcquireLockReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		lock, err := locks.Acquire(req.SlotID, req.Owner)
		if err != nil {
			if errors.Is(err, errs.SlotBusy) {
				c.Header("Retry-After", "1")
				common.ErrorResp(c, err, http.StatusConflict)
				return
			}
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		common.SuccessResp(c, LockResp{
			SlotID:     lock.SlotID,
			LockID:     lock.LockID,
			AcquiredAt: lock.AcquiredAt.Unix(),
			Expiry:     lock.Expiry.Unix(),
		})
	}
}

type ReleaseLockReq struct {
	SlotID string `json:"slot_id" binding:"required"`
	LockID string `json:"lock_id" binding:"required"`
}

// ReleaseLock is idempotent: releasing a lock that is already gone (expired,
// reclaimed, or released twice) succeeds as a no-op.
func ReleaseLock(locks *coinlock.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReleaseLockReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		if err := locks.Release(req.SlotID, req.LockID); err != nil &&
			!errors.Is(err, errs.LockNotFound) {
			common.ErrorResp(c, err, http.StatusInternalServerError)
			return
		}
		common.SuccessResp(c)
	}
}
