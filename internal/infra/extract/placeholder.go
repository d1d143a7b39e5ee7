package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanwahyu/automaton-health/internal/domain/report"
)

// Placeholder stands in for real PDF text extraction. It waits Delay and returns
// a synthetic string naming the file.
type Placeholder struct {
	Delay time.Duration
}

func NewPlaceholder(delay time.Duration) *Placeholder {
	return &Placeholder{Delay: delay}
}

func (p *Placeholder) Extract(ctx context.Context, f report.UploadedFile) (string, error) {
	if p.Delay > 0 {
		t := time.NewTimer(p.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Sprintf("Extracted text from %s: [placeholder: real text extraction not implemented]", f.Name), nil
}
