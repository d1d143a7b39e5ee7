package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/automaton-health/internal/domain/report"
)

// DefaultInstruction is used when the user submits no prompt of their own.
const DefaultInstruction = "Analyze these medical documents and images and provide a comprehensive health assessment."

// ImageInstruction asks for one JSON object per image. Keep the schema in sync
// with report.ImageFindings.
func ImageInstruction() string {
	return `You are a medical imaging assistant. Analyze the attached image and respond with one valid JSON object only (no markdown, no commentary) that follows this schema:
{
  "description": "<what the image shows>",
  "abnormalities": ["<abnormality>", "..."],
  "measurements": ["<measurement with unit>", "..."],
  "confidence": <number 0-100>,
  "recommendations": "<follow-up recommendations>"
}
Use empty arrays when nothing applies.`
}

// AggregatePrefix opens the holistic request and fixes the heading names the
// section splitter looks for.
func AggregatePrefix(instruction string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstruction
	}
	return instruction + `

Combine every document and image below into one assessment. Structure the answer with these headings, each on its own line followed by a colon:
Document Findings:
Diagnosis:
Recommendations:
Separate sections with a blank line. This is informational and does not replace a physician.`
}

// DocumentBlock joins extracted document text. Returns "" when nothing was extracted.
func DocumentBlock(texts []string) string {
	if len(texts) == 0 {
		return ""
	}
	return "Extracted text from documents:\n" + strings.Join(texts, "\n\n")
}

func ImageHeader(name string) string {
	return fmt.Sprintf("Image: %s", name)
}

// PriorAnalysis restates the per-image result after the image bytes.
func PriorAnalysis(name string, f report.ImageFindings) string {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Sprintf("Previous analysis of %s: %s", name, f.Description)
	}
	return fmt.Sprintf("Previous analysis of %s: %s", name, b)
}
