package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pkg/response"
	"github.com/COROTANjayson/readify/internal/service"
)

type ToolHandler struct {
	summaries     *service.SummaryService
	insights      *service.InsightService
	presentations *service.PresentationService
	chat          *service.ChatService
}

func NewToolHandler(
	summaries *service.SummaryService,
	insights *service.InsightService,
	presentations *service.PresentationService,
	chat *service.ChatService,
) *ToolHandler {
	return &ToolHandler{summaries: summaries, insights: insights, presentations: presentations, chat: chat}
}

type toolRequest struct {
	FileID     string `json:"fileId"`
	Regenerate bool   `json:"regenerate"`
}

type presentationRequest struct {
	FileID     string `json:"fileId"`
	SlideCount *int   `json:"slideCount"`
	Regenerate bool   `json:"regenerate"`
}

type messageRequest struct {
	FileID  string `json:"fileId"`
	Message string `json:"message"`
}

type summaryResponse struct {
	ID        string      `json:"id"`
	Summary   string      `json:"summary"`
	FileID    string      `json:"fileId"`
	FileName  string      `json:"fileName"`
	CreatedAt int64       `json:"createdAt"`
	IsNew     bool        `json:"isNew"`
	Usage     model.Usage `json:"usage"`
}

type insightResponse struct {
	ID          string      `json:"id"`
	Insight     string      `json:"insight"`
	KeyFindings []string    `json:"keyFindings"`
	ActionItems []string    `json:"actionItems"`
	Questions   []string    `json:"questions"`
	FileID      string      `json:"fileId"`
	FileName    string      `json:"fileName"`
	CreatedAt   int64       `json:"createdAt"`
	IsNew       bool        `json:"isNew"`
	Usage       model.Usage `json:"usage"`
}

type presentationResponse struct {
	PresentationID string      `json:"presentationId"`
	DownloadURL    string      `json:"downloadUrl"`
	FileName       string      `json:"fileName"`
	SlideCount     int         `json:"slideCount"`
	IsNew          bool        `json:"isNew"`
	Usage          model.Usage `json:"usage"`
}

func bindFileID(c *gin.Context, req interface{}, fileID func() string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "invalid request")
		return false
	}
	if strings.TrimSpace(fileID()) == "" {
		badRequest(c, "fileId is required")
		return false
	}
	return true
}

func (h *ToolHandler) Summary(c *gin.Context) {
	var req toolRequest
	if !bindFileID(c, &req, func() string { return req.FileID }) {
		return
	}
	res, err := h.summaries.Generate(c.Request.Context(), getUserID(c), req.FileID, req.Regenerate)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summaryResponse{
		ID:        res.Summary.ID,
		Summary:   res.Summary.Summary,
		FileID:    res.File.ID,
		FileName:  res.File.Name,
		CreatedAt: res.Summary.Ctime,
		IsNew:     res.IsNew,
		Usage:     res.Usage,
	})
}

func (h *ToolHandler) Insight(c *gin.Context) {
	var req toolRequest
	if !bindFileID(c, &req, func() string { return req.FileID }) {
		return
	}
	res, err := h.insights.Generate(c.Request.Context(), getUserID(c), req.FileID, req.Regenerate)
	if err != nil {
		handleError(c, err)
		return
	}
	in := res.Insight
	response.Success(c, insightResponse{
		ID:          in.ID,
		Insight:     in.Insight,
		KeyFindings: in.KeyFindings,
		ActionItems: in.ActionItems,
		Questions:   in.Questions,
		FileID:      res.File.ID,
		FileName:    res.File.Name,
		CreatedAt:   in.Ctime,
		IsNew:       res.IsNew,
		Usage:       res.Usage,
	})
}

func (h *ToolHandler) Presentation(c *gin.Context) {
	var req presentationRequest
	if !bindFileID(c, &req, func() string { return req.FileID }) {
		return
	}
	res, err := h.presentations.Generate(c.Request.Context(), getUserID(c), req.FileID, req.SlideCount, req.Regenerate)
	if err != nil {
		handleError(c, err)
		return
	}
	p := res.Presentation
	response.Success(c, presentationResponse{
		PresentationID: p.ID,
		DownloadURL:    p.DownloadURL,
		FileName:       p.FileName,
		SlideCount:     p.SlideCount,
		IsNew:          res.IsNew,
		Usage:          res.Usage,
	})
}

// Message streams the assistant reply as plain text. Headers go out with
// the first token so failures before generation starts still get a JSON
// error envelope.
func (h *ToolHandler) Message(c *gin.Context) {
	var req messageRequest
	if !bindFileID(c, &req, func() string { return req.FileID }) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return
	}
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
	}
	_, err := h.chat.Send(c.Request.Context(), getUserID(c), req.FileID, req.Message, func(token string) error {
		start()
		if _, err := c.Writer.WriteString(token); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if !started {
			handleError(c, err)
			return
		}
		logutil.GetLogger(c.Request.Context()).Error("chat stream aborted",
			zap.String("file_id", req.FileID),
			zap.String("user_id", getUserID(c)),
			zap.Error(err),
		)
		return
	}
	start()
}
