package pdf

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/bryanwahyu/automaton-health/internal/domain/report"
)

// Layout constants, A4 portrait in millimetres.
const (
	pageWidth     = 210.0
	margin        = 20.0
	textWidth     = pageWidth - 2*margin
	headerHeight  = 30.0
	lineHeight    = 7.0
	sectionGap    = 10.0
	pageBreakAt   = 250.0
	topOfNextPage = 20.0
)

// Renderer draws an AnalysisResult with go-pdf/fpdf.
type Renderer struct {
	Title string
}

func NewRenderer() *Renderer {
	return &Renderer{Title: "AI Health Report"}
}

// Render writes the report. Output depends only on its inputs, so equal
// results with equal dates give equal bytes.
func (r *Renderer) Render(w io.Writer, res report.AnalysisResult, patientName string, date time.Time) error {
	doc := r.layout(res, patientName, date)
	if err := doc.Error(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return doc.Output(w)
}

func (r *Renderer) layout(res report.AnalysisResult, patientName string, date time.Time) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(date)
	doc.SetModificationDate(date)
	doc.SetCatalogSort(true)
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle(r.Title, true)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()

	// header band
	doc.SetFillColor(41, 128, 185)
	doc.Rect(0, 0, pageWidth, headerHeight, "F")
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 20)
	doc.Text(margin, 20, tr(r.Title))

	// metadata
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "", 12)
	doc.Text(margin, 40, tr("Patient Name: "+patientName))
	doc.Text(margin, 47, tr("Date: "+date.Format("January 2, 2006")))

	y := 60.0
	y = r.section(doc, tr, y, "Document Findings", res.TextFindings)
	y = r.section(doc, tr, y, "Image Analysis", imageSummary(res.ImageFindings))

	if y > pageBreakAt {
		doc.AddPage()
		y = topOfNextPage
	}
	y = r.section(doc, tr, y, "Diagnosis", res.Diagnosis)

	if y > pageBreakAt {
		doc.AddPage()
		y = topOfNextPage
	}
	r.section(doc, tr, y, "Recommendations", res.Recommendations)
	return doc
}

func (r *Renderer) section(doc *fpdf.Fpdf, tr func(string) string, y float64, title, body string) float64 {
	doc.SetFont("Helvetica", "B", 14)
	doc.SetTextColor(41, 128, 185)
	doc.Text(margin, y, tr(title))
	y += lineHeight + 1

	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(0, 0, 0)
	if strings.TrimSpace(body) == "" {
		body = report.NotAvailable
	}
	for _, para := range strings.Split(body, "\n") {
		if strings.TrimSpace(para) == "" {
			y += lineHeight / 2
			continue
		}
		for _, line := range wrap(doc, tr(para), textWidth) {
			doc.Text(margin, y, line)
			y += lineHeight
		}
	}
	return y + sectionGap
}

// imageSummary flattens per-image findings in file-name order.
func imageSummary(m map[string]report.ImageFindings) string {
	if len(m) == 0 {
		return "No images analyzed."
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		f := m[name]
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:\n", name)
		fmt.Fprintf(&b, "Description: %s\n", f.Description)
		if len(f.Abnormalities) > 0 {
			fmt.Fprintf(&b, "Abnormalities: %s\n", strings.Join(f.Abnormalities, ", "))
		}
		if len(f.Measurements) > 0 {
			fmt.Fprintf(&b, "Measurements: %s\n", strings.Join(f.Measurements, ", "))
		}
		fmt.Fprintf(&b, "Confidence: %.0f%%\n", f.Confidence)
		fmt.Fprintf(&b, "Recommendations: %s\n", f.Recommendations)
	}
	return b.String()
}

// wrap breaks text on spaces so each line fits width. Words wider than the
// line are left to overflow.
func wrap(doc *fpdf.Fpdf, text string, width float64) []string {
	words := strings.Fields(text)
	var lines []string
	cur := ""
	for _, w := range words {
		next := w
		if cur != "" {
			next = cur + " " + w
		}
		if cur != "" && doc.GetStringWidth(next) > width {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = next
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
