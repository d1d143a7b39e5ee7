package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appassistant "github.com/bryanwahyu/automaton-health/internal/application/assistant"
	appdashboard "github.com/bryanwahyu/automaton-health/internal/application/dashboard"
	appprofile "github.com/bryanwahyu/automaton-health/internal/application/profile"
	appreport "github.com/bryanwahyu/automaton-health/internal/application/report"
	domai "github.com/bryanwahyu/automaton-health/internal/domain/ai"
	domdashboard "github.com/bryanwahyu/automaton-health/internal/domain/dashboard"
	domprofile "github.com/bryanwahyu/automaton-health/internal/domain/profile"
	domreport "github.com/bryanwahyu/automaton-health/internal/domain/report"
	"github.com/bryanwahyu/automaton-health/internal/middleware"
)

// Options carries everything the router needs. Nil services disable their routes.
type Options struct {
	Reports   *appreport.Service
	Profiles  *appprofile.Service
	Assistant *appassistant.Service
	Dashboard *appdashboard.Service
	Log       *zap.Logger

	APIKeys        map[string]string
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	MaxUploadBytes int64
	HealthChecks   map[string]middleware.HealthChecker
}

type Router struct {
	reports   *appreport.Service
	profiles  *appprofile.Service
	assistant *appassistant.Service
	dashboard *appdashboard.Service
	log       *zap.Logger
	maxUpload int64
}

// errBadRequest marks malformed input caught in the handler itself.
type errBadRequest struct{ err error }

func (e errBadRequest) Error() string { return e.err.Error() }
func (e errBadRequest) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return errBadRequest{err: fmt.Errorf(format, args...)}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	r := &Router{
		reports:   opts.Reports,
		profiles:  opts.Profiles,
		assistant: opts.Assistant,
		dashboard: opts.Dashboard,
		log:       log,
		maxUpload: maxUpload,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Report-URL"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	mux.Use(middleware.RateLimitMiddleware(opts.RateLimiter))

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.HealthChecks))
	mux.Get("/readyz", middleware.ReadinessHandler(opts.HealthChecks))
	mux.Handle("/metrics", middleware.MetricsHandler())

	mux.Route("/v1/{user}", func(rt chi.Router) {
		rt.Use(middleware.RequireMatchingUser)

		if r.reports != nil {
			rt.Post("/reports/analyze", r.wrap(r.handleAnalyze))
			rt.Get("/reports/current", r.wrap(r.handleCurrent))
			rt.Get("/reports/current/pdf", r.wrap(r.handleDownload))
		}
		if r.profiles != nil {
			rt.Get("/profile", r.wrap(r.handleProfile))
			rt.Put("/profile/steps/{step}", r.wrap(r.handleProfileStep))
			rt.Post("/activities", r.wrap(r.handleActivity))
		}
		if r.assistant != nil {
			rt.Post("/assistant/ask", r.wrap(r.handleAsk))
		}
		if r.dashboard != nil {
			rt.Get("/dashboard/panel", r.wrap(r.handlePanel))
			rt.Put("/dashboard/panel", r.wrap(r.handleOpenPanel))
		}
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			r.log.Error("request failed",
				zap.String("path", req.URL.Path),
				zap.String("user", chi.URLParam(req, "user")),
				zap.Error(err))
		}
		writeError(w, status, msg)
	}
}

func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	var bad errBadRequest
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "upload too large"
	case errors.As(err, &bad),
		domreport.IsValidation(err),
		errors.Is(err, domprofile.ErrUnknownStep),
		errors.Is(err, domprofile.ErrInvalidStep),
		errors.Is(err, domprofile.ErrInvalidActivity),
		errors.Is(err, domdashboard.ErrUnknownPanel),
		errors.Is(err, appassistant.ErrEmptyQuestion):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domreport.ErrSubmissionInFlight):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domreport.ErrNoResult):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "ai quota exceeded"
	case errors.Is(err, appreport.ErrAnalysisFailed):
		return http.StatusBadGateway, domreport.FailureMessage
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func decode(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// POST /v1/{user}/reports/analyze
// multipart: patient_name, prompt (optional), files (repeated)
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")

	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequest("invalid multipart form: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	files, err := readUploads(req.MultipartForm.File["files"])
	if err != nil {
		return err
	}
	for _, f := range files {
		if !middleware.IsSuggestedExtension(f.Name) {
			r.log.Debug("upload outside suggested types", zap.String("user", user), zap.String("file", f.Name))
		}
	}

	snap, err := r.reports.Submit(req.Context(), appreport.SubmitCommand{
		UserID:      user,
		PatientName: middleware.SanitizeString(req.FormValue("patient_name")),
		Prompt:      req.FormValue("prompt"),
		Files:       files,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, snap)
}

func readUploads(headers []*multipart.FileHeader) ([]domreport.UploadedFile, error) {
	out := make([]domreport.UploadedFile, 0, len(headers))
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		name := middleware.SanitizeFileName(fh.Filename)
		if name == "" {
			name = fmt.Sprintf("file-%d", i+1)
		}
		out = append(out, domreport.NewUploadedFile(name, fh.Header.Get("Content-Type"), data))
	}
	return out, nil
}

// GET /v1/{user}/reports/current
func (r *Router) handleCurrent(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, r.reports.Snapshot(chi.URLParam(req, "user")))
}

// GET /v1/{user}/reports/current/pdf?patient_name=
func (r *Router) handleDownload(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")
	patient := middleware.SanitizeString(req.URL.Query().Get("patient_name"))

	doc, err := r.reports.Render(req.Context(), user, patient)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	if doc.URL != "" {
		w.Header().Set("X-Report-URL", doc.URL)
	}
	_, err = w.Write(doc.Data)
	return err
}

// GET /v1/{user}/profile
func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) error {
	p, err := r.profiles.Get(req.Context(), chi.URLParam(req, "user"))
	if err != nil {
		return err
	}
	return writeJSON(w, p)
}

// PUT /v1/{user}/profile/steps/{step}
func (r *Router) handleProfileStep(w http.ResponseWriter, req *http.Request) error {
	var in domprofile.StepInput
	if err := decode(req, &in); err != nil {
		return err
	}
	in.FullName = middleware.SanitizeString(in.FullName)

	res, err := r.profiles.SaveStep(req.Context(), chi.URLParam(req, "user"), chi.URLParam(req, "step"), in)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// POST /v1/{user}/activities
// Body: {"kind":"journal|mood","text":"...","mood":"good"}
func (r *Router) handleActivity(w http.ResponseWriter, req *http.Request) error {
	var c domprofile.CheckIn
	if err := decode(req, &c); err != nil {
		return err
	}
	res, err := r.profiles.CheckIn(req.Context(), chi.URLParam(req, "user"), c)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// POST /v1/{user}/assistant/ask
// Body: {"question":"..."}
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Question string `json:"question"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	answer, err := r.assistant.Ask(req.Context(), body.Question)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]string{"answer": answer})
}

type panelView struct {
	Panel  domdashboard.Panel `json:"panel"`
	Static bool               `json:"static"`
}

// GET /v1/{user}/dashboard/panel
func (r *Router) handlePanel(w http.ResponseWriter, req *http.Request) error {
	p := r.dashboard.Current(chi.URLParam(req, "user"))
	return writeJSON(w, panelView{Panel: p, Static: p.Static()})
}

// PUT /v1/{user}/dashboard/panel
// Body: {"panel":"report_analyzer"}
func (r *Router) handleOpenPanel(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Panel string `json:"panel"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	p, err := r.dashboard.Open(chi.URLParam(req, "user"), body.Panel)
	if err != nil {
		return err
	}
	return writeJSON(w, panelView{Panel: p, Static: p.Static()})
}
