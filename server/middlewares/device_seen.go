package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendo-org/vendo/internal/db"
)

// DeviceSeen updates a slot controller's last-seen timestamp after
// successful requests that identify themselves with X-Device-ID.
func DeviceSeen(c *gin.Context) {
	c.Next()
	if c.Writer.Status() >= 400 {
		return
	}
	deviceID := c.GetHeader("X-Device-ID")
	if deviceID == "" {
		return
	}
	_ = db.TouchDevice(deviceID, time.Now().Unix())
}
