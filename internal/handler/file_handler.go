package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/COROTANjayson/readify/internal/pkg/errcode"
	"github.com/COROTANjayson/readify/internal/pkg/response"
	"github.com/COROTANjayson/readify/internal/service"
)

type FileHandler struct {
	files         *service.FileService
	summaries     *service.SummaryService
	insights      *service.InsightService
	presentations *service.PresentationService
	chat          *service.ChatService
	maxUpload     int64
}

func NewFileHandler(
	files *service.FileService,
	summaries *service.SummaryService,
	insights *service.InsightService,
	presentations *service.PresentationService,
	chat *service.ChatService,
	maxUpload int64,
) *FileHandler {
	return &FileHandler{
		files:         files,
		summaries:     summaries,
		insights:      insights,
		presentations: presentations,
		chat:          chat,
		maxUpload:     maxUpload,
	}
}

func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile,
			fmt.Sprintf("file exceeds %s limit", formatSizeLimit(h.maxUpload)))
		return
	}
	opened, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	file, err := h.files.Upload(c.Request.Context(), getUserID(c), header.Filename, opened, header.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, newFileView(file))
}

func (h *FileHandler) List(c *gin.Context) {
	files, err := h.files.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]fileView, 0, len(files))
	for i := range files {
		items = append(items, newFileView(&files[i]))
	}
	response.Success(c, items)
}

func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.files.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, newFileView(file))
}

func (h *FileHandler) Status(c *gin.Context) {
	status, err := h.files.Status(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *FileHandler) Messages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be a number")
			return
		}
		if v == 0 {
			badRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = v
	}
	items, next, err := h.chat.ListMessages(c.Request.Context(), getUserID(c), c.Param("id"), c.Query("cursor"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": items, "nextCursor": next})
}

func (h *FileHandler) Summary(c *gin.Context) {
	summary, err := h.summaries.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *FileHandler) Insight(c *gin.Context) {
	insight, err := h.insights.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, insight)
}

func (h *FileHandler) Presentation(c *gin.Context) {
	p, err := h.presentations.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}
