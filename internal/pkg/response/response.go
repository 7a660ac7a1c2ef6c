package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes the failure envelope with the given http status.
func Error(c *gin.Context, status int, code int, message string) {
	proxyutil.FailJson(c, status, AsCodeErr(uint32(code), message))
}

// ErrorWithData is Error plus a data payload, used when the client needs
// structured details such as the exhausted usage pair.
func ErrorWithData(c *gin.Context, status int, code int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"code": code,
		"msg":  message,
		"data": data,
	})
}
