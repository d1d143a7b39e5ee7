package report

import (
	"encoding/json"
	"strings"
)

// UnparsedRecommendation marks an image record whose reply wasn't valid JSON.
const UnparsedRecommendation = "Unable to parse structured analysis"

// ParseImageFindings reads a model reply as ImageFindings. A reply that isn't
// valid JSON yields a degraded record carrying the raw text; it never fails.
func ParseImageFindings(reply string) ImageFindings {
	body := stripFences(reply)
	if !strings.HasPrefix(body, "{") {
		return degraded(reply)
	}
	var f ImageFindings
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		return degraded(reply)
	}
	if f.Abnormalities == nil {
		f.Abnormalities = []string{}
	}
	if f.Measurements == nil {
		f.Measurements = []string{}
	}
	return f
}

func degraded(raw string) ImageFindings {
	return ImageFindings{
		Description:     raw,
		Abnormalities:   []string{},
		Measurements:    []string{},
		Confidence:      0,
		Recommendations: UnparsedRecommendation,
	}
}

// stripFences removes a ```json ... ``` wrapper models like to add.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.Index(t, "\n"); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
