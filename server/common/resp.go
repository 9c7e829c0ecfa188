package common

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Resp struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func ErrorResp(c *gin.Context, err error, code int) {
	ErrorWithDataResp(c, err, code, nil)
}

func ErrorWithDataResp(c *gin.Context, err error, code int, data interface{}) {
	log.Errorf("%+v", err)
	c.JSON(code, Resp{
		Code:    code,
		Message: err.Error(),
		Data:    data,
	})
	c.Abort()
}

func ErrorStrResp(c *gin.Context, str string, code int) {
	c.JSON(code, Resp{
		Code:    code,
		Message: str,
		Data:    nil,
	})
	c.Abort()
}

func SuccessResp(c *gin.Context, data ...interface{}) {
	if len(data) == 0 {
		c.JSON(200, Resp{
			Code:    200,
			Message: "success",
			Data:    nil,
		})
		return
	}
	c.JSON(200, Resp{
		Code:    200,
		Message: "success",
		Data:    data[0],
	})
}
