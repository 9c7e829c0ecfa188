package handles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/credit"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/model"
	"github.com/vendo-org/vendo/server/common"
)

type CreditReq struct {
	ClientID string `json:"client_id" binding:"required"`
	DeviceID string `json:"device_id" binding:"required"`
	SlotID   string `json:"slot_id"`
	Voucher  string `json:"voucher"`
	Amount   int    `json:"amount" binding:"required"`
	LockID   string `json:"lock_id"`
}

type CreditResp struct {
	Token            string `json:"token"`
	GrantedSeconds   int64  `json:"granted_seconds"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Refund           bool   `json:"refund"`
}

// Credit starts or extends a session from a credit event. The slot lock
// named by lock_id (or taken internally) is released whatever the outcome;
// a non-2xx response tells the coin layer to refund.
func Credit(svc *credit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreditReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		origin := model.CoinOrigin(req.SlotID)
		if req.Voucher != "" {
			origin = model.VoucherOrigin(req.Voucher)
		} else if req.SlotID == "" {
			common.ErrorStrResp(c, "slot_id or voucher required", http.StatusBadRequest)
			return
		}

		res, err := svc.Process(c.Request.Context(), credit.Request{
			ClientID: req.ClientID,
			DeviceID: req.DeviceID,
			Origin:   origin,
			Amount:   req.Amount,
			LockID:   req.LockID,
		})
		if err != nil {
			refund := CreditResp{Refund: res != nil && res.Refund}
			switch {
			case errors.Is(err, errs.SlotBusy):
				c.Header("Retry-After", "1")
				common.ErrorWithDataResp(c, err, http.StatusConflict, refund)
			case errors.Is(err, errs.NoMatchingRate):
				common.ErrorWithDataResp(c, err, http.StatusUnprocessableEntity, refund)
			case errors.Is(err, errs.NotOperable):
				common.ErrorWithDataResp(c, err, http.StatusForbidden, refund)
			default:
				common.ErrorWithDataResp(c, err, http.StatusInternalServerError, refund)
			}
			return
		}
		common.SuccessResp(c, CreditResp{
			Token:            res.Token,
			GrantedSeconds:   res.GrantedSeconds,
			RemainingSeconds: res.RemainingSeconds,
		})
	}
}
