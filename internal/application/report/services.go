package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/automaton-health/internal/application"
	"github.com/bryanwahyu/automaton-health/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-health/internal/domain/report"
	"github.com/bryanwahyu/automaton-health/internal/infra/ai/prompt"
	"github.com/bryanwahyu/automaton-health/internal/metrics"
)

// ErrAnalysisFailed wraps every pipeline-fatal error. Callers show
// domain.FailureMessage instead of the cause.
var ErrAnalysisFailed = errors.New("analysis failed")

const defaultImageConcurrency = 2

// Service runs the report-analysis pipeline and owns each user's submission
// lifecycle. Safe for concurrent use; at most one submission per user is in
// flight.
type Service struct {
	AI        ai.Client
	Extractor domain.TextExtractor
	Renderer  domain.Renderer
	Artifacts domain.ArtifactStore // optional
	Clock     application.Clock
	Log       *zap.Logger

	// ImageConcurrency caps parallel per-file work. <= 0 means 2.
	ImageConcurrency int
	// Timeout bounds one submission. Zero means none.
	Timeout time.Duration
	// OnSuccess runs after a submission succeeds, e.g. to award points.
	OnSuccess func(ctx context.Context, user string)

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id       domain.SubmissionID
	status   domain.Status
	progress map[string]int
	previews map[string]string
	errMsg   string

	// last successful submission; survives later failures
	result   *domain.AnalysisResult
	patient  string
	resultID domain.SubmissionID
}

// SubmitCommand is one analysis request.
type SubmitCommand struct {
	UserID      string
	PatientName string
	Prompt      string
	Files       []domain.UploadedFile
}

// Snapshot is the view state of one user's submissions.
type Snapshot struct {
	SubmissionID string                 `json:"submission_id,omitempty"`
	Status       domain.Status          `json:"status"`
	Progress     map[string]int         `json:"progress,omitempty"`
	Previews     map[string]string      `json:"previews,omitempty"`
	Error        string                 `json:"error,omitempty"`
	PatientName  string                 `json:"patient_name,omitempty"`
	ResultID     string                 `json:"result_id,omitempty"`
	Result       *domain.AnalysisResult `json:"result,omitempty"`
}

// RenderedReport is a finished document ready for download.
type RenderedReport struct {
	FileName string
	Data     []byte
	URL      string
}

// Validate checks the command without touching any state.
func (c SubmitCommand) Validate() error {
	if len(c.Files) == 0 {
		return domain.ErrNoFiles
	}
	if strings.TrimSpace(c.PatientName) == "" {
		return domain.ErrPatientNameRequired
	}
	return nil
}

// Submit runs the whole pipeline: per-file analysis, aggregate call, section
// split. Validation errors return before any AI call. A second call for the
// same user while one is running gets ErrSubmissionInFlight.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return s.Snapshot(cmd.UserID), err
	}

	id, err := s.begin(cmd)
	if err != nil {
		return s.Snapshot(cmd.UserID), err
	}
	log := s.logger().With(zap.String("user", cmd.UserID), zap.String("submission_id", string(id)))
	log.Info("analysis started", zap.Int("files", len(cmd.Files)))

	// the user can't abort a submission, so a dropped connection doesn't either
	runCtx := context.WithoutCancel(ctx)
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, s.Timeout)
		defer cancel()
	}

	start := s.now()
	res, err := s.analyze(runCtx, cmd)
	s.finish(cmd, id, res, err)
	if err != nil {
		metrics.ObserveSubmission(string(domain.StatusFailed), s.now().Sub(start))
		log.Error("analysis failed", zap.Error(err))
		return s.Snapshot(cmd.UserID), fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	metrics.ObserveSubmission(string(domain.StatusSucceeded), s.now().Sub(start))
	log.Info("analysis finished", zap.Int("images", len(res.ImageFindings)))

	if s.OnSuccess != nil {
		s.OnSuccess(runCtx, cmd.UserID)
	}
	return s.Snapshot(cmd.UserID), nil
}

func (s *Service) begin(cmd SubmitCommand) (domain.SubmissionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionLocked(cmd.UserID)
	if sess.status == domain.StatusAnalyzing {
		return "", domain.ErrSubmissionInFlight
	}

	sess.id = domain.SubmissionID(uuid.New().String())
	sess.status = domain.StatusAnalyzing
	sess.errMsg = ""
	sess.progress = make(map[string]int)
	sess.previews = make(map[string]string)
	for _, f := range cmd.Files {
		if f.IsImage() && !f.Empty() {
			sess.progress[f.Name] = 0
			sess.previews[f.Name] = f.PreviewURI()
		}
	}
	return sess.id, nil
}

func (s *Service) finish(cmd SubmitCommand, id domain.SubmissionID, res domain.AnalysisResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessionLocked(cmd.UserID)
	if err != nil {
		sess.status = domain.StatusFailed
		sess.errMsg = domain.FailureMessage
		return
	}
	sess.status = domain.StatusSucceeded
	sess.result = &res
	sess.patient = strings.TrimSpace(cmd.PatientName)
	sess.resultID = id
}

func (s *Service) analyze(ctx context.Context, cmd SubmitCommand) (domain.AnalysisResult, error) {
	var images, docs []domain.UploadedFile
	for _, f := range cmd.Files {
		switch {
		case f.Empty():
			s.logger().Warn("skipping empty upload", zap.String("user", cmd.UserID), zap.String("file", f.Name))
		case f.IsImage():
			images = append(images, f)
		case f.IsPDF():
			docs = append(docs, f)
		}
	}

	imageResults := make([]domain.ImageFindings, len(images))
	texts := make([]string, len(docs))

	limit := s.ImageConcurrency
	if limit <= 0 {
		limit = defaultImageConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range images {
		g.Go(func() error {
			fi, err := s.analyzeImage(gctx, cmd.UserID, f)
			if err != nil {
				return fmt.Errorf("analyze image %s: %w", f.Name, err)
			}
			imageResults[i] = fi
			return nil
		})
	}
	for i, f := range docs {
		g.Go(func() error {
			text, err := s.Extractor.Extract(gctx, f)
			if err != nil {
				return fmt.Errorf("extract text from %s: %w", f.Name, err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.AnalysisResult{}, err
	}

	// submission order; a repeated name overwrites the earlier entry
	findings := make(map[string]domain.ImageFindings, len(images))
	for i, f := range images {
		findings[f.Name] = imageResults[i]
	}

	parts := []ai.Part{ai.Text(prompt.AggregatePrefix(cmd.Prompt))}
	if block := prompt.DocumentBlock(nonEmpty(texts)); block != "" {
		parts = append(parts, ai.Text(block))
	}
	for i, f := range images {
		parts = append(parts,
			ai.Text(prompt.ImageHeader(f.Name)),
			ai.Inline(f.Data, f.MIMEType),
			ai.Text(prompt.PriorAnalysis(f.Name, imageResults[i])),
		)
	}

	reply, err := s.AI.Generate(ctx, parts)
	metrics.ObserveCompletion("aggregate", err)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("aggregate analysis: %w", err)
	}

	return domain.AnalysisResult{
		TextFindings:    domain.ExtractSection(reply, domain.TextFindingsKeywords...),
		ImageFindings:   findings,
		Diagnosis:       domain.ExtractSection(reply, domain.DiagnosisKeywords...),
		Recommendations: domain.ExtractSection(reply, domain.RecommendationKeywords...),
	}, nil
}

func (s *Service) analyzeImage(ctx context.Context, user string, f domain.UploadedFile) (domain.ImageFindings, error) {
	s.setProgress(user, f.Name, 0)

	reply, err := s.AI.Generate(ctx, []ai.Part{
		ai.Text(prompt.ImageInstruction()),
		ai.Inline(f.Data, f.MIMEType),
	})
	metrics.ObserveCompletion("image", err)
	if err != nil {
		return domain.ImageFindings{}, err
	}

	findings := domain.ParseImageFindings(reply)
	if findings.Recommendations == domain.UnparsedRecommendation && findings.Confidence == 0 {
		s.logger().Warn("image reply was not valid JSON", zap.String("user", user), zap.String("file", f.Name))
	}
	s.setProgress(user, f.Name, 100)
	return findings, nil
}

// Snapshot returns the current view state for user.
func (s *Service) Snapshot(user string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[user]
	if !ok {
		return Snapshot{Status: domain.StatusIdle}
	}
	snap := Snapshot{
		SubmissionID: string(sess.id),
		Status:       sess.status,
		Progress:     maps.Clone(sess.progress),
		Previews:     maps.Clone(sess.previews),
		Error:        sess.errMsg,
		PatientName:  sess.patient,
		ResultID:     string(sess.resultID),
	}
	if sess.result != nil {
		r := *sess.result
		snap.Result = &r
	}
	return snap
}

// Render lays out the user's latest result. An empty patientName falls back to
// the name given at submission. When an artifact store is configured the
// document is also uploaded and its URL returned.
func (s *Service) Render(ctx context.Context, user, patientName string) (RenderedReport, error) {
	s.mu.Lock()
	sess, ok := s.sessions[user]
	var (
		res *domain.AnalysisResult
		id  domain.SubmissionID
	)
	if ok && sess.result != nil {
		r := *sess.result
		res, id = &r, sess.resultID
		if strings.TrimSpace(patientName) == "" {
			patientName = sess.patient
		}
	}
	s.mu.Unlock()

	if res == nil {
		return RenderedReport{}, domain.ErrNoResult
	}
	if strings.TrimSpace(patientName) == "" {
		return RenderedReport{}, domain.ErrPatientNameRequired
	}

	var buf bytes.Buffer
	if err := s.Renderer.Render(&buf, *res, patientName, s.now()); err != nil {
		return RenderedReport{}, fmt.Errorf("render report: %w", err)
	}

	out := RenderedReport{FileName: domain.FileName(patientName), Data: buf.Bytes()}
	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/%s/%s", user, id, out.FileName)
		url, err := s.Artifacts.Put(ctx, key, "application/pdf", out.Data)
		if err != nil {
			// the download still works without the stored copy
			s.logger().Warn("report upload failed", zap.String("user", user), zap.Error(err))
		} else {
			out.URL = url
		}
	}
	return out, nil
}

func (s *Service) setProgress(user, name string, pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[user]; ok && sess.progress != nil {
		sess.progress[name] = pct
	}
}

func (s *Service) sessionLocked(user string) *session {
	if s.sessions == nil {
		s.sessions = make(map[string]*session)
	}
	sess, ok := s.sessions[user]
	if !ok {
		sess = &session{status: domain.StatusIdle}
		s.sessions[user] = sess
	}
	return sess
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
