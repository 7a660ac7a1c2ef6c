package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/COROTANjayson/readify/internal/model"
)

func readParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		parts[f.Name] = string(body)
	}
	return parts
}

func TestRender(t *testing.T) {
	deck := &model.SlideDeck{
		Title: "Q3 <Review> & Plan",
		Slides: []model.Slide{
			{Title: "Intro", Content: []string{"ignored"}},
			{Title: "Revenue", Content: []string{"up 10%", "costs & risks"}},
			{Title: "Next", Content: []string{"hire"}},
		},
	}
	data, err := Render(deck, "report.pdf", time.Unix(0, 0))
	require.NoError(t, err)
	parts := readParts(t, data)

	require.Contains(t, parts, "[Content_Types].xml")
	require.Contains(t, parts, "ppt/presentation.xml")
	require.Contains(t, parts, "ppt/slides/slide1.xml")
	require.Contains(t, parts, "ppt/slides/slide3.xml")
	require.NotContains(t, parts, "ppt/slides/slide4.xml")

	require.Contains(t, parts["ppt/slides/slide1.xml"], "Q3 &lt;Review&gt; &amp; Plan")
	require.Contains(t, parts["ppt/slides/slide1.xml"], "Generated from: report.pdf")
	require.Contains(t, parts["ppt/slides/slide2.xml"], "Revenue")
	require.Contains(t, parts["ppt/slides/slide2.xml"], "costs &amp; risks")
	require.Contains(t, parts["ppt/slides/slide2.xml"], "<a:t>2</a:t>")
	require.NotContains(t, parts["ppt/slides/slide2.xml"], "ignored")

	for name, body := range parts {
		if !strings.HasSuffix(name, ".xml") && !strings.HasSuffix(name, ".rels") {
			continue
		}
		dec := xml.NewDecoder(strings.NewReader(body))
		for {
			_, err := dec.Token()
			if err == io.EOF {
				break
			}
			require.NoError(t, err, name)
		}
	}
}

func TestRenderRequiresTitle(t *testing.T) {
	_, err := Render(&model.SlideDeck{}, "a.pdf", time.Now())
	require.Error(t, err)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "report_presentation.pptx", FileName("report.pdf"))
	require.Equal(t, "a.b_presentation.pptx", FileName("a.b.pdf"))
	require.Equal(t, ".env_presentation.pptx", FileName(".env"))
	require.Equal(t, "document_presentation.pptx", FileName(""))
}
