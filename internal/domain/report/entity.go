package report

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"
)

// SubmissionID identifier type
type SubmissionID string

// UploadedFile is one user-selected file. Immutable once created.
type UploadedFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewUploadedFile builds a file, resolving a missing or generic MIME type from
// the extension first and the content second.
func NewUploadedFile(name, mimeType string, data []byte) UploadedFile {
	mt := strings.TrimSpace(mimeType)
	if mt == "" || mt == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
			mt = byExt
		} else if len(data) > 0 {
			mt = http.DetectContentType(data)
		}
	}
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return UploadedFile{Name: name, MIMEType: mt, Data: data}
}

func (f UploadedFile) IsImage() bool { return strings.HasPrefix(f.MIMEType, "image/") }

func (f UploadedFile) IsPDF() bool { return f.MIMEType == "application/pdf" }

// Empty reports a zero-byte upload. Empty files are never sent for analysis.
func (f UploadedFile) Empty() bool { return len(f.Data) == 0 }

// PreviewURI returns a data URI usable as an image preview, or "" for non-images.
func (f UploadedFile) PreviewURI() string {
	if !f.IsImage() {
		return ""
	}
	return "data:" + f.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// ImageFindings is the structured answer for one analyzed image.
type ImageFindings struct {
	Description     string   `json:"description"`
	Abnormalities   []string `json:"abnormalities"`
	Measurements    []string `json:"measurements"`
	Confidence      float64  `json:"confidence"`
	Recommendations string   `json:"recommendations"`
}

// AnalysisResult is built once per submission after the aggregate call.
// It is never persisted.
type AnalysisResult struct {
	TextFindings    string                   `json:"textFindings"`
	ImageFindings   map[string]ImageFindings `json:"imageFindings"`
	Diagnosis       string                   `json:"diagnosis"`
	Recommendations string                   `json:"recommendations"`
}

// Status of a submission lifecycle
type Status string

const (
	StatusIdle      Status = "idle"
	StatusAnalyzing Status = "analyzing"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// FileName is the download name for a patient's report. It also ends up as the
// last segment of the artifact key, so the name can never introduce a path.
func FileName(patientName string) string {
	return safeName(patientName) + "_AI_Health_Report.pdf"
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.Trim(s, " .")
}
