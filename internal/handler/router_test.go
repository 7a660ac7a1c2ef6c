package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pkg/jwt"
	"github.com/COROTANjayson/readify/internal/pptx"
	"github.com/COROTANjayson/readify/internal/ratelimit"
	"github.com/COROTANjayson/readify/internal/service"
	"github.com/COROTANjayson/readify/internal/service/servicetest"
)

const (
	testSecret = "test-secret"
	testIssuer = "readify-test"
	testUser   = "user-1"
	testFile   = "file-1"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}

type harness struct {
	engine    *gin.Engine
	files     *servicetest.FileRepo
	retriever *servicetest.Retriever
	gen       *servicetest.Generator
	token     string
}

func newHarness(t *testing.T, limit int, limiter ratelimit.Limiter) *harness {
	t.Helper()
	return newHarnessForFile(t, limit, limiter, "Report.pdf")
}

func newHarnessForFile(t *testing.T, limit int, limiter ratelimit.Limiter, fileName string) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var quota model.Quota
	for _, tool := range model.Tools() {
		quota[tool] = model.Usage{Limit: limit}
	}
	h := &harness{
		files: servicetest.NewFileRepo(&model.File{
			ID:           testFile,
			UserID:       testUser,
			Name:         fileName,
			UploadStatus: model.UploadStatusSuccess,
			Quota:        quota,
		}),
		retriever: servicetest.NewRetriever(),
		gen: &servicetest.Generator{
			Summary: "<p>short</p>",
			Insight: &model.InsightContent{Insight: "i", KeyFindings: []string{}, ActionItems: []string{}, Questions: []string{}},
			Deck: &model.SlideDeck{Title: "Deck", Slides: []model.Slide{
				{Title: "Intro", Content: []string{"a"}},
				{Title: "Body", Content: []string{"b"}},
			}},
			Tokens: []string{"Hello", " there"},
		},
	}
	h.retriever.Set(testFile, "passage one", "passage two")

	blobs := servicetest.NewBlobStore()
	ledger := service.NewUsageLedger(h.files)
	rag := service.NewRAGOrchestrator(h.retriever, h.gen)
	summaries := service.NewSummaryService(h.files, servicetest.NewSummaryRepo(), ledger, rag)
	insights := service.NewInsightService(h.files, servicetest.NewInsightRepo(), ledger, rag)
	presentations := service.NewPresentationService(h.files, servicetest.NewPresentationRepo(), blobs, ledger, rag)
	chat := service.NewChatService(h.files, servicetest.NewMessageRepo(), ledger, rag)
	files := service.NewFileService(h.files, blobs, service.FileServiceConfig{MaxSizeBytes: 1 << 20})

	h.engine = gin.New()
	RegisterRoutes(h.engine.Group("/api/v1"), RouterDeps{
		Files:         NewFileHandler(files, summaries, insights, presentations, chat, 1<<20),
		Tools:         NewToolHandler(summaries, insights, presentations, chat),
		Presentations: NewPresentationHandler(presentations),
		Health:        NewHealthHandler(stubPinger{}),
		Limiter:       limiter,
		JWTSecret:     []byte(testSecret),
		JWTIssuer:     testIssuer,
	})
	token, err := jwt.GenerateToken(testUser, "u@example.com", testIssuer, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	h.token = token
	return h
}

func (h *harness) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestSummaryEndpoint(t *testing.T) {
	h := newHarness(t, 1, nil)

	rec := h.do(http.MethodPost, "/api/v1/tools/summary", gin.H{"fileId": testFile})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	require.Equal(t, "<p>short</p>", data["summary"])
	require.Equal(t, "Report.pdf", data["fileName"])
	require.Equal(t, true, data["isNew"])

	rec = h.do(http.MethodPost, "/api/v1/tools/summary", gin.H{"fileId": testFile, "regenerate": true})
	require.Equal(t, http.StatusForbidden, rec.Code)
	data = decodeData(t, rec)
	require.Equal(t, "SUMMARIZE_LIMIT_EXCEEDED", data["code"])
	require.Equal(t, 1, h.files.Usage(testFile, model.ToolSummarize).Count)
}

func TestToolEndpointErrors(t *testing.T) {
	h := newHarness(t, 3, nil)

	rec := h.do(http.MethodPost, "/api/v1/tools/insight", gin.H{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/tools/insight", gin.H{"fileId": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	h.retriever.Set(testFile)
	rec = h.do(http.MethodPost, "/api/v1/tools/insight", gin.H{"fileId": testFile})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, 0, h.files.Usage(testFile, model.ToolInsight).Count)

	rec = h.do(http.MethodPost, "/api/v1/tools/presentation", gin.H{"fileId": testFile, "slideCount": 40})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	h.token = ""
	rec = h.do(http.MethodPost, "/api/v1/tools/summary", gin.H{"fileId": testFile})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitedRequestConsumesNothing(t *testing.T) {
	h := newHarness(t, 3, ratelimit.NewLocal(1, time.Minute))

	rec := h.do(http.MethodPost, "/api/v1/tools/summary", gin.H{"fileId": testFile, "regenerate": true})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodPost, "/api/v1/tools/summary", gin.H{"fileId": testFile, "regenerate": true})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, 1, h.files.Usage(testFile, model.ToolSummarize).Count)
}

func TestMessageStreams(t *testing.T) {
	h := newHarness(t, 3, nil)

	rec := h.do(http.MethodPost, "/api/v1/tools/message", gin.H{"fileId": testFile, "message": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	require.Equal(t, "Hello there", rec.Body.String())

	rec = h.do(http.MethodGet, "/api/v1/files/"+testFile+"/messages?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decodeData(t, rec)["messages"].([]interface{})
	require.Len(t, messages, 2)
}

func TestMessageFailureBeforeStreamIsJSON(t *testing.T) {
	h := newHarness(t, 3, nil)
	h.gen.Err = errors.New("model down")

	rec := h.do(http.MethodPost, "/api/v1/tools/message", gin.H{"fileId": testFile, "message": "hi"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.Equal(t, 0, h.files.Usage(testFile, model.ToolChat).Count)

	rec = h.do(http.MethodPost, "/api/v1/tools/message", gin.H{"fileId": testFile, "message": " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresentationDownloadAndDelete(t *testing.T) {
	h := newHarness(t, 3, nil)

	rec := h.do(http.MethodPost, "/api/v1/tools/presentation", gin.H{"fileId": testFile})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	require.Equal(t, "Report_presentation.pptx", data["fileName"])
	require.Equal(t, "/api/v1/files/file-1/download/presentation", data["downloadUrl"])
	id := data["presentationId"].(string)

	rec = h.do(http.MethodGet, "/api/v1/files/"+testFile+"/download/presentation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pptx.ContentType, rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename=Report_presentation.pptx`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, "PK", rec.Body.String()[:2])

	rec = h.do(http.MethodDelete, "/api/v1/presentations/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/api/v1/files/"+testFile+"/download/presentation", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresentationDownloadEscapesFileName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{source: `Q3 "final".pdf`, want: `Q3 "final"_presentation.pptx`},
		{source: "Résumé 2026.pdf", want: "Résumé 2026_presentation.pptx"},
		{source: `a\b;c.pdf`, want: `a\b;c_presentation.pptx`},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			h := newHarnessForFile(t, 3, nil, tt.source)
			rec := h.do(http.MethodPost, "/api/v1/tools/presentation", gin.H{"fileId": testFile})
			require.Equal(t, http.StatusOK, rec.Code)

			rec = h.do(http.MethodGet, "/api/v1/files/"+testFile+"/download/presentation", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			require.Equal(t, "attachment", disposition)
			require.Equal(t, tt.want, params["filename"])
		})
	}
}

func TestFileEndpoints(t *testing.T) {
	h := newHarness(t, 3, nil)

	rec := h.do(http.MethodGet, "/api/v1/files/"+testFile, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	usage := decodeData(t, rec)["usage"].(map[string]interface{})
	require.Contains(t, usage, "summarize")

	rec = h.do(http.MethodGet, "/api/v1/files/unknown/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "PENDING", decodeData(t, rec)["status"])

	rec = h.do(http.MethodGet, "/api/v1/files/"+testFile+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/tools/presentation", gin.H{"fileId": testFile})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodDelete, "/api/v1/files/"+testFile, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodPost, "/api/v1/tools/summary", gin.H{"fileId": testFile})
	require.Equal(t, http.StatusNotFound, rec.Code)
	for _, path := range []string{"/summary", "/insight", "/presentation", "/download/presentation"} {
		rec = h.do(http.MethodGet, "/api/v1/files/"+testFile+path, nil)
		require.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestKeepAlive(t *testing.T) {
	h := newHarness(t, 3, ratelimit.NewLocal(1, time.Minute))
	h.token = ""

	rec := h.do(http.MethodGet, "/api/v1/cron/keep-alive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeData(t, rec)["status"])

	rec = h.do(http.MethodGet, "/api/v1/cron/keep-alive", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
