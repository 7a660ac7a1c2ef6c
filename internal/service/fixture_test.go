package service

import (
	"testing"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/service/servicetest"
)

const (
	testUser = "user-1"
	testFile = "file-1"
)

type fixture struct {
	files         *servicetest.FileRepo
	summaries     *servicetest.SummaryRepo
	insights      *servicetest.InsightRepo
	presentations *servicetest.PresentationRepo
	messages      *servicetest.MessageRepo
	blobs         *servicetest.BlobStore
	retriever     *servicetest.Retriever
	gen           *servicetest.Generator
	ledger        *UsageLedger
	rag           *RAGOrchestrator
}

func newFixture(t *testing.T, limit int) *fixture {
	t.Helper()
	var quota model.Quota
	for _, tool := range model.Tools() {
		quota[tool] = model.Usage{Limit: limit}
	}
	f := &fixture{
		files: servicetest.NewFileRepo(&model.File{
			ID:           testFile,
			UserID:       testUser,
			Name:         "Quarterly Report.pdf",
			Key:          testFile + ".pdf",
			UploadStatus: model.UploadStatusSuccess,
			Quota:        quota,
			Ctime:        1,
		}),
		summaries:     servicetest.NewSummaryRepo(),
		insights:      servicetest.NewInsightRepo(),
		presentations: servicetest.NewPresentationRepo(),
		messages:      servicetest.NewMessageRepo(),
		blobs:         servicetest.NewBlobStore(),
		retriever:     servicetest.NewRetriever(),
		gen: &servicetest.Generator{
			Summary: "<h2>Overview</h2><p>Revenue grew.</p>",
			Insight: &model.InsightContent{
				Insight:     "Revenue grew.",
				KeyFindings: []string{"growth"},
				ActionItems: []string{},
				Questions:   []string{},
			},
			Deck: &model.SlideDeck{
				Title: "Quarterly Report",
				Slides: []model.Slide{
					{Title: "Intro", Content: []string{"overview"}},
					{Title: "Revenue", Content: []string{"grew 10%"}},
				},
			},
			Tokens: []string{"Revenue ", "grew ", "10%."},
		},
	}
	f.retriever.Set(testFile, "Revenue grew 10% in Q3.", "Costs were flat.")
	f.ledger = NewUsageLedger(f.files)
	f.ledger.rollbackDelay = 0
	f.rag = NewRAGOrchestrator(f.retriever, f.gen)
	return f
}

func (f *fixture) usage(tool model.Tool) model.Usage {
	return f.files.Usage(testFile, tool)
}
