package handles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendo-org/vendo/internal/db"
	"github.com/vendo-org/vendo/internal/model"
	"github.com/vendo-org/vendo/server/common"
)

// ListDevices is the admin view of known slot controllers.
func ListDevices(c *gin.Context) {
	devices, err := db.ListDevices()
	if err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, devices)
}

type DeviceRegisterReq struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name"`
}

// RegisterDevice names a slot controller so its rates and sales group under
// a stable identity. Re-registering keeps the liveness fields.
func RegisterDevice(c *gin.Context) {
	var req DeviceRegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResp(c, err, http.StatusBadRequest)
		return
	}
	d := &model.Device{ID: req.ID, Name: req.Name}
	if cur, err := db.GetDevice(req.ID); err == nil {
		d.LastSeen = cur.LastSeen
		d.Status = cur.Status
	}
	if err := db.UpsertDevice(d); err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, d)
}
