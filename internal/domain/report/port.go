package report

import (
	"context"
	"io"
	"time"
)

// TextExtractor turns a document into text. Swappable so a real extractor can
// replace the placeholder without touching the pipeline.
type TextExtractor interface {
	Extract(ctx context.Context, f UploadedFile) (string, error)
}

// Renderer lays an AnalysisResult out as a downloadable document.
type Renderer interface {
	Render(w io.Writer, r AnalysisResult, patientName string, date time.Time) error
}

// ArtifactStore keeps rendered reports for later download.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
