package handler

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/pkg/response"
	"github.com/COROTANjayson/readify/internal/pptx"
	"github.com/COROTANjayson/readify/internal/service"
)

type PresentationHandler struct {
	presentations *service.PresentationService
}

func NewPresentationHandler(presentations *service.PresentationService) *PresentationHandler {
	return &PresentationHandler{presentations: presentations}
}

func (h *PresentationHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be a number")
			return
		}
		limit = v
	}
	items, next, err := h.presentations.List(c.Request.Context(), getUserID(c), c.Query("cursor"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"presentations": items, "nextCursor": next})
}

func (h *PresentationHandler) Delete(c *gin.Context) {
	if err := h.presentations.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// attachmentDisposition quotes or RFC 2231 encodes name as needed, since it
// derives from the uploaded file name.
func attachmentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// Download serves the rendered deck of a file as an attachment.
func (h *PresentationHandler) Download(c *gin.Context) {
	p, rc, err := h.presentations.Download(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", pptx.ContentType)
	c.Header("Content-Disposition", attachmentDisposition(p.FileName))
	if p.BlobSize > 0 {
		c.Header("Content-Length", strconv.FormatInt(p.BlobSize, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logutil.GetLogger(c.Request.Context()).Warn("presentation download interrupted",
			zap.String("presentation_id", p.ID),
			zap.Error(err),
		)
	}
}
