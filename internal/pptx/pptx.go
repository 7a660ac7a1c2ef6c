package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/COROTANjayson/readify/internal/model"
)

const ContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

const emuPerInch = 914400

type align string

const (
	alignLeft   align = "l"
	alignCenter align = "ctr"
	alignRight  align = "r"
)

type part struct {
	name string
	body string
}

type run struct {
	text   string
	size   int
	bold   bool
	color  string
	align  align
	bullet bool
}

// Render builds a deck whose first slide shows the deck title and the source
// document name. The outline's own first slide is the title slide and is not
// repeated; every other outline slide becomes a bulleted content slide.
func Render(deck *model.SlideDeck, sourceName string, now time.Time) ([]byte, error) {
	if deck == nil || strings.TrimSpace(deck.Title) == "" {
		return nil, fmt.Errorf("deck title is required")
	}
	slides := []string{titleSlide(deck.Title, sourceName)}
	for i := 1; i < len(deck.Slides); i++ {
		slides = append(slides, contentSlide(deck.Slides[i], i+1))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []part{
		{"[Content_Types].xml", contentTypes(len(slides))},
		{"_rels/.rels", rootRels},
		{"docProps/core.xml", fmt.Sprintf(corePropsTmpl, escape(deck.Title), now.UTC().Format(time.RFC3339))},
		{"docProps/app.xml", fmt.Sprintf(appPropsTmpl, len(slides))},
		{"ppt/presentation.xml", presentation(len(slides))},
		{"ppt/_rels/presentation.xml.rels", presentationRels(len(slides))},
		{"ppt/slideMasters/slideMaster1.xml", slideMaster},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRels},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayout},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRels},
		{"ppt/theme/theme1.xml", theme},
	}
	for i, body := range slides {
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), body},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), slideRels},
		)
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func titleSlide(title, sourceName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, slideHead, "F1F5F9")
	sb.WriteString(shape(2, "Title", 0.5, 2.5, 9, 1.5, run{text: title, size: 44, bold: true, color: "1E293B", align: alignCenter}))
	sb.WriteString(shape(3, "Source", 0.5, 4.5, 9, 0.5, run{text: "Generated from: " + sourceName, size: 14, color: "64748B", align: alignCenter}))
	sb.WriteString(slideTail)
	return sb.String()
}

func contentSlide(slide model.Slide, number int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, slideHead, "FFFFFF")
	sb.WriteString(shape(2, "Title", 0.5, 0.5, 9, 0.75, run{text: slide.Title, size: 32, bold: true, color: "1E293B", align: alignLeft}))
	bullets := make([]run, 0, len(slide.Content))
	for _, point := range slide.Content {
		bullets = append(bullets, run{text: point, size: 18, color: "334155", align: alignLeft, bullet: true})
	}
	sb.WriteString(shape(3, "Body", 1, 1.5, 8, 4, bullets...))
	sb.WriteString(shape(4, "Number", 9, 5.2, 0.5, 0.3, run{text: fmt.Sprintf("%d", number), size: 12, color: "94A3B8", align: alignRight}))
	sb.WriteString(slideTail)
	return sb.String()
}

func shape(id int, name string, x, y, w, h float64, runs ...run) string {
	var paras strings.Builder
	for _, r := range runs {
		paras.WriteString(paragraph(r))
	}
	if len(runs) == 0 {
		paras.WriteString("<a:p/>")
	}
	return fmt.Sprintf(textBox, id, name, emu(x), emu(y), emu(w), emu(h), paras.String())
}

func paragraph(r run) string {
	var sb strings.Builder
	sb.WriteString("<a:p>")
	if r.bullet {
		fmt.Fprintf(&sb, `<a:pPr marL="285750" indent="-285750" algn="%s"><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/></a:pPr>`, r.align)
	} else {
		fmt.Fprintf(&sb, `<a:pPr algn="%s"><a:buNone/></a:pPr>`, r.align)
	}
	bold := 0
	if r.bold {
		bold = 1
	}
	fmt.Fprintf(&sb, `<a:r><a:rPr lang="en-US" sz="%d" b="%d" dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r>`,
		r.size*100, bold, r.color, escape(r.text))
	sb.WriteString("</a:p>")
	return sb.String()
}

func contentTypes(n int) string {
	var sb strings.Builder
	sb.WriteString(contentTypesHead)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, contentTypeSlide, i)
	}
	sb.WriteString("</Types>")
	return sb.String()
}

func presentation(n int) string {
	var sb strings.Builder
	sb.WriteString(presentationHead)
	for i := 1; i <= n; i++ {
		// slide ids start at 256; rId1 and rId2 are the master and theme
		fmt.Fprintf(&sb, "<p:sldId id=\"%d\" r:id=\"rId%d\"/>\n", 255+i, i+2)
	}
	sb.WriteString(presentationTail)
	return sb.String()
}

func presentationRels(n int) string {
	var sb strings.Builder
	sb.WriteString(presentationRelsHead)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "<Relationship Id=\"rId%d\" Type=\"http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide\" Target=\"slides/slide%d.xml\"/>\n", i+2, i)
	}
	sb.WriteString("</Relationships>")
	return sb.String()
}

func emu(inches float64) int64 {
	return int64(inches * emuPerInch)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// FileName is the download name for a deck generated from sourceName.
func FileName(sourceName string) string {
	base := sourceName
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		base = "document"
	}
	return base + "_presentation.pptx"
}
