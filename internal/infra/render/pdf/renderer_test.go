package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-health/internal/domain/report"
)

var reportDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sampleResult() report.AnalysisResult {
	return report.AnalysisResult{
		TextFindings: "Document Findings:\nHemoglobin 13.5 g/dL.",
		ImageFindings: map[string]report.ImageFindings{
			"wrist.jpg": {Description: "Wrist X-ray", Confidence: 80, Recommendations: "none"},
			"ankle.png": {Description: "Ankle", Abnormalities: []string{"swelling"}, Confidence: 65},
		},
		Diagnosis:       "Diagnosis: Mild strain",
		Recommendations: "Recommendations:\nRest.",
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer()

	var a, b bytes.Buffer
	require.NoError(t, r.Render(&a, sampleResult(), "Jane Doe", reportDate))
	require.NoError(t, r.Render(&b, sampleResult(), "Jane Doe", reportDate))

	assert.True(t, bytes.HasPrefix(a.Bytes(), []byte("%PDF-")))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestRender_SinglePageForShortReport(t *testing.T) {
	doc := NewRenderer().layout(sampleResult(), "Jane Doe", reportDate)
	require.NoError(t, doc.Error())
	assert.Equal(t, 1, doc.PageCount())
}

func TestRender_BreaksBeforeDiagnosisWhenPageIsFull(t *testing.T) {
	res := sampleResult()
	res.TextFindings = strings.Repeat("Finding line.\n", 40)

	doc := NewRenderer().layout(res, "Jane Doe", reportDate)
	require.NoError(t, doc.Error())
	assert.Equal(t, 2, doc.PageCount())
}

func TestRender_EmptySectionsAndNonASCII(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer().Render(&buf, report.AnalysisResult{Diagnosis: "Sehr gut – keine Befunde"}, "José Müller", reportDate)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestImageSummary_SortedByName(t *testing.T) {
	s := imageSummary(sampleResult().ImageFindings)
	assert.Less(t, strings.Index(s, "ankle.png:"), strings.Index(s, "wrist.jpg:"))
	assert.Contains(t, s, "Abnormalities: swelling")
	assert.Contains(t, s, "Confidence: 80%")
	assert.Equal(t, "No images analyzed.", imageSummary(nil))
}
