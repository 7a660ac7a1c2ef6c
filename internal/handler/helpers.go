package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/middleware"
	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pkg/errcode"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
	"github.com/COROTANjayson/readify/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

type usageLimitData struct {
	Code  string      `json:"code"`
	Usage model.Usage `json:"usage"`
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	var limitErr *appErr.UsageLimitError
	switch {
	case errors.As(err, &limitErr):
		response.ErrorWithData(c, http.StatusForbidden, errcode.ErrUsageLimitExceeded, limitErr.Error(), usageLimitData{
			Code:  limitErr.Code(),
			Usage: model.Usage{Count: limitErr.Count, Limit: limitErr.Limit},
		})
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrNoContentFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNoContentFound, appErr.ErrNoContentFound.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrMalformedOutput):
		response.Error(c, http.StatusInternalServerError, errcode.ErrMalformedOutput, "generation returned an invalid result")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}

func badRequest(c *gin.Context, msg string) {
	response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, msg)
}

type fileView struct {
	*model.File
	Usage map[string]model.Usage `json:"usage"`
}

func newFileView(f *model.File) fileView {
	usage := make(map[string]model.Usage, model.ToolCount)
	for _, tool := range model.Tools() {
		usage[tool.String()] = f.Quota.Of(tool)
	}
	return fileView{File: f, Usage: usage}
}
