package report

import (
	"slices"
	"strings"
	"unicode"
)

// NotAvailable is returned when a section heading cannot be found.
const NotAvailable = "Not available"

// Keyword sets used to split the aggregate reply, in priority order.
var (
	TextFindingsKeywords   = []string{"document findings", "text findings", "document analysis", "findings from documents", "extracted text", "findings"}
	DiagnosisKeywords      = []string{"diagnosis"}
	RecommendationKeywords = []string{"recommendation"}

	imageFindingsKeywords = []string{"image findings", "image analysis", "imaging findings"}
)

// knownSections is checked in order when deciding which section a heading
// belongs to, so "Image Findings" is claimed before the bare "findings".
var knownSections = [][]string{
	imageFindingsKeywords,
	DiagnosisKeywords,
	RecommendationKeywords,
	TextFindingsKeywords,
}

// ExtractSection is a best-effort splitter for free-form model output.
//
// It looks for the first heading-like line containing one of the keywords (tried
// in order) and captures it together with the following lines. Capture stops at
// a markdown heading, at a heading of a different known section, or at any
// heading-like line that follows a blank line. Indented lines always continue
// the section. When no heading matches, NotAvailable is
// returned. Section boundaries are not guaranteed to be right.
func ExtractSection(text string, keywords ...string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	start, matched := -1, ""
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for i, l := range lines {
			if !isHeading(l) || !strings.Contains(strings.ToLower(l), kw) {
				continue
			}
			// a heading claimed by another section does not count
			if owner := sectionOf(l); owner != nil && !slices.Contains(owner, kw) {
				continue
			}
			start, matched = i, kw
			break
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return NotAvailable
	}

	out := []string{strings.TrimSpace(lines[start])}
	for i := start + 1; i < len(lines); i++ {
		l := strings.TrimRight(lines[i], " \t")
		if l == "" {
			out = append(out, "")
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			break
		}
		if isIndented(l) || !isHeading(l) {
			out = append(out, l)
			continue
		}
		if owner := sectionOf(l); owner != nil && !slices.Contains(owner, matched) {
			break
		}
		if strings.TrimSpace(lines[i-1]) == "" {
			break
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// sectionOf returns the keyword set of the first known section named by l.
func sectionOf(l string) []string {
	l = strings.ToLower(l)
	for _, set := range knownSections {
		for _, kw := range set {
			if strings.Contains(l, kw) {
				return set
			}
		}
	}
	return nil
}

func isIndented(l string) bool {
	return l != "" && (l[0] == ' ' || l[0] == '\t')
}

// isHeading: markdown heading, bold line, numbered title, or a short label before a colon.
func isHeading(l string) bool {
	t := strings.TrimSpace(l)
	if t == "" {
		return false
	}
	if strings.HasPrefix(t, "#") || strings.HasPrefix(t, "**") {
		return true
	}
	t = strings.TrimLeftFunc(t, func(r rune) bool {
		return unicode.IsDigit(r) || r == '.' || r == ')' || r == ' '
	})
	if strings.HasSuffix(t, ":") {
		return true
	}
	i := strings.Index(t, ":")
	if i <= 0 {
		return false
	}
	label := strings.Fields(t[:i])
	return len(label) > 0 && len(label) <= 5
}
