package handles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/license"
	"github.com/vendo-org/vendo/server/common"
)

type LicenseStatusResp struct {
	HardwareID    string `json:"hardware_id"`
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
	CanOperate    bool   `json:"can_operate"`
	TrialStart    int64  `json:"trial_start"`
	ExpiresAt     int64  `json:"expires_at"`
}

func LicenseStatus(gate *license.Gatekeeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := gate.Status()
		common.SuccessResp(c, LicenseStatusResp{
			HardwareID:    st.HardwareID,
			Status:        st.Status,
			DaysRemaining: gate.DaysRemaining(),
			CanOperate:    gate.CanOperate(),
			TrialStart:    st.TrialStart,
			ExpiresAt:     st.ExpiresAt,
		})
	}
}

type ActivateReq struct {
	Key string `json:"key" binding:"required"`
}

func LicenseActivate(gate *license.Gatekeeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ActivateReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		if err := gate.Activate(c.Request.Context(), req.Key); err != nil {
			switch {
			case errors.Is(err, errs.InvalidKey):
				common.ErrorResp(c, err, http.StatusUnprocessableEntity)
			case errors.Is(err, errs.AlreadyBoundElsewhere):
				common.ErrorResp(c, err, http.StatusConflict)
			case errors.Is(err, errs.RemoteUnreachable):
				common.ErrorResp(c, err, http.StatusBadGateway)
			default:
				common.ErrorResp(c, err, http.StatusInternalServerError)
			}
			return
		}
		common.SuccessResp(c)
	}
}
