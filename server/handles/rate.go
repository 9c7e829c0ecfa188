package handles

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendo-org/vendo/internal/db"
	"github.com/vendo-org/vendo/internal/model"
	"github.com/vendo-org/vendo/internal/rates"
	"github.com/vendo-org/vendo/server/common"
)

// ListRates returns a device's pricing table straight from the database,
// bypassing the resolver cache, so admins see exactly what is stored.
func ListRates(c *gin.Context) {
	deviceID := c.Query("device_id")
	if deviceID == "" {
		common.ErrorStrResp(c, "device_id required", http.StatusBadRequest)
		return
	}
	table, err := db.ListRatesByDevice(deviceID)
	if err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, table)
}

type RateCreateReq struct {
	DeviceID     string `json:"device_id" binding:"required"`
	Amount       int    `json:"amount" binding:"required"`
	Duration     int64  `json:"duration" binding:"required"`
	Unit         string `json:"unit"`
	DownKbps     int    `json:"down_kbps"`
	UpKbps       int    `json:"up_kbps"`
	PauseAllowed bool   `json:"pause_allowed"`
	Priority     int    `json:"priority"`
}

// CreateRate adds a pricing rule and drops the cached table so the next
// credit on the device is priced by the edited table.
func CreateRate(resolver *rates.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RateCreateReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		if req.Amount <= 0 || req.Duration <= 0 {
			common.ErrorStrResp(c, "amount and duration must be positive", http.StatusBadRequest)
			return
		}
		rate := &model.Rate{
			DeviceID:     req.DeviceID,
			Amount:       req.Amount,
			Duration:     req.Duration,
			Unit:         req.Unit,
			DownKbps:     req.DownKbps,
			UpKbps:       req.UpKbps,
			PauseAllowed: req.PauseAllowed,
			Priority:     req.Priority,
			CreatedAt:    time.Now().Unix(),
		}
		if err := db.CreateRate(rate); err != nil {
			common.ErrorResp(c, err, http.StatusInternalServerError)
			return
		}
		resolver.Invalidate(req.DeviceID)
		common.SuccessResp(c, rate)
	}
}

type RateDeleteReq struct {
	ID uint `json:"id" binding:"required"`
}

// DeleteRate removes a pricing rule. Sessions already granted from it are
// untouched.
func DeleteRate(resolver *rates.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RateDeleteReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		rate, err := db.GetRate(req.ID)
		if err != nil {
			common.ErrorResp(c, err, http.StatusNotFound)
			return
		}
		if err := db.DeleteRate(req.ID); err != nil {
			common.ErrorResp(c, err, http.StatusInternalServerError)
			return
		}
		resolver.Invalidate(rate.DeviceID)
		common.SuccessResp(c)
	}
}
