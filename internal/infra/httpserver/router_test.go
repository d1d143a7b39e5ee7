package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-health/internal/application"
	appassistant "github.com/bryanwahyu/automaton-health/internal/application/assistant"
	appdashboard "github.com/bryanwahyu/automaton-health/internal/application/dashboard"
	appprofile "github.com/bryanwahyu/automaton-health/internal/application/profile"
	appreport "github.com/bryanwahyu/automaton-health/internal/application/report"
	"github.com/bryanwahyu/automaton-health/internal/domain/ai"
	domreport "github.com/bryanwahyu/automaton-health/internal/domain/report"
	"github.com/bryanwahyu/automaton-health/internal/infra/ai/prompt"
	"github.com/bryanwahyu/automaton-health/internal/infra/db/memory"
	"github.com/bryanwahyu/automaton-health/internal/infra/extract"
	"github.com/bryanwahyu/automaton-health/internal/infra/render/pdf"
	"github.com/bryanwahyu/automaton-health/internal/middleware"
)

type scriptedAI struct {
	err error
}

func (s *scriptedAI) Generate(_ context.Context, parts []ai.Part) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	switch parts[0].Text {
	case prompt.ImageInstruction():
		return `{"description":"Hand X-ray","abnormalities":[],"measurements":[],"confidence":90,"recommendations":"none"}`, nil
	case prompt.AssistantInstruction():
		return "Stay hydrated.", nil
	}
	return "Document Findings:\nnormal labs\n\nDiagnosis: Mild strain\n\nRecommendations:\nRest.", nil
}

type testEnv struct {
	handler http.Handler
	ai      *scriptedAI
}

func newEnv(t *testing.T, keys map[string]string) *testEnv {
	t.Helper()
	client := &scriptedAI{}
	clock := application.FixedClock{T: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	profiles := &appprofile.Service{Repo: memory.NewProfileRepository(), Clock: clock}
	reports := &appreport.Service{
		AI:        client,
		Extractor: extract.NewPlaceholder(0),
		Renderer:  pdf.NewRenderer(),
		Clock:     clock,
		OnSuccess: profiles.AwardReport,
	}
	h := NewRouter(Options{
		Reports:   reports,
		Profiles:  profiles,
		Assistant: appassistant.NewService(client),
		Dashboard: appdashboard.NewService(),
		APIKeys:   keys,
	})
	return &testEnv{handler: h, ai: client}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type upload struct {
	name, mime string
	data       []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.mime)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	env := newEnv(t, map[string]string{"u1": "secret"})
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_FailingCheck(t *testing.T) {
	h := NewRouter(Options{
		Reports:   &appreport.Service{},
		Profiles:  &appprofile.Service{Repo: memory.NewProfileRepository()},
		Assistant: appassistant.NewService(&scriptedAI{}),
		Dashboard: appdashboard.NewService(),
		APIKeys:   map[string]string{"u1": "secret"},
		HealthChecks: map[string]middleware.HealthChecker{
			"storage": middleware.CheckFunc(func(context.Context) error { return errors.New("bucket missing") }),
		},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[middleware.ReadinessStatus](t, rec)
	assert.Equal(t, []string{"storage"}, body.Failing)
}

func TestAnalyzeAndDownload(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, multipartRequest(t, "/v1/u1/reports/analyze",
		map[string]string{"patient_name": "Jane Doe"},
		upload{"labs.pdf", "application/pdf", []byte("%PDF-1.4 labs")},
		upload{"hand.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snap := decodeBody[appreport.Snapshot](t, rec)
	assert.Equal(t, domreport.StatusSucceeded, snap.Status)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "Diagnosis: Mild strain", snap.Result.Diagnosis)
	assert.Contains(t, snap.Result.ImageFindings, "hand.jpg")
	assert.Len(t, snap.Result.ImageFindings, 1)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/v1/u1/reports/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snap.ResultID, decodeBody[appreport.Snapshot](t, rec).ResultID)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/v1/u1/reports/current/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Jane Doe_AI_Health_Report.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	// the successful analysis was rewarded
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/v1/u1/profile", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(20), decodeBody[map[string]any](t, rec)["points"])
}

func TestAnalyze_Validation(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, multipartRequest(t, "/v1/u1/reports/analyze", map[string]string{"patient_name": "Jane"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domreport.ErrNoFiles.Error(), decodeBody[map[string]string](t, rec)["error"])

	rec = env.do(t, multipartRequest(t, "/v1/u1/reports/analyze", nil,
		upload{"hand.jpg", "image/jpeg", []byte{0xff, 0xd8}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, jsonRequest(http.MethodPost, "/v1/u1/reports/analyze", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_FailureIsGeneric(t *testing.T) {
	env := newEnv(t, nil)
	env.ai.err = errors.New("upstream exploded with secret details")

	rec := env.do(t, multipartRequest(t, "/v1/u1/reports/analyze",
		map[string]string{"patient_name": "Jane"},
		upload{"hand.jpg", "image/jpeg", []byte{0xff, 0xd8}}))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, domreport.FailureMessage, decodeBody[map[string]string](t, rec)["error"])

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/v1/u1/reports/current", nil))
	snap := decodeBody[appreport.Snapshot](t, rec)
	assert.Equal(t, domreport.StatusFailed, snap.Status)
	assert.Nil(t, snap.Result)
}

func TestAnalyze_QuotaMapsToFailure(t *testing.T) {
	env := newEnv(t, nil)
	env.ai.err = ai.ErrQuotaExceeded

	rec := env.do(t, multipartRequest(t, "/v1/u1/reports/analyze",
		map[string]string{"patient_name": "Jane"},
		upload{"hand.jpg", "image/jpeg", []byte{0xff, 0xd8}}))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = env.do(t, jsonRequest(http.MethodPost, "/v1/u1/assistant/ask", `{"question":"hi"}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestDownload_NoResult(t *testing.T) {
	env := newEnv(t, nil)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/v1/u1/reports/current/pdf?patient_name=Jane", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileAndActivities(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, jsonRequest(http.MethodPut, "/v1/u1/profile/steps/personal", `{"full_name":"Jane Doe","age":34}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(15), decodeBody[map[string]any](t, rec)["points_earned"])

	rec = env.do(t, jsonRequest(http.MethodPut, "/v1/u1/profile/steps/personal", `{"age":34}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, jsonRequest(http.MethodPut, "/v1/u1/profile/steps/payment", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, jsonRequest(http.MethodPost, "/v1/u1/activities", `{"kind":"mood","mood":"great"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), decodeBody[map[string]any](t, rec)["points_earned"])

	rec = env.do(t, jsonRequest(http.MethodPost, "/v1/u1/activities", `{"kind":"report"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, jsonRequest(http.MethodPost, "/v1/u1/activities", `not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistant(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, jsonRequest(http.MethodPost, "/v1/u1/assistant/ask", `{"question":"water?"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Stay hydrated.", decodeBody[map[string]string](t, rec)["answer"])

	rec = env.do(t, jsonRequest(http.MethodPost, "/v1/u1/assistant/ask", `{"question":" "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardPanel(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/v1/u1/dashboard/panel", nil))
	assert.Equal(t, map[string]any{"panel": "overview", "static": false}, decodeBody[map[string]any](t, rec))

	rec = env.do(t, jsonRequest(http.MethodPut, "/v1/u1/dashboard/panel", `{"panel":"community"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"panel": "community", "static": true}, decodeBody[map[string]any](t, rec))

	rec = env.do(t, jsonRequest(http.MethodPut, "/v1/u1/dashboard/panel", `{"panel":"settings"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newEnv(t, map[string]string{"u1": "secret"})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/v1/u1/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/u2/profile", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusForbidden, env.do(t, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/u1/profile", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, env.do(t, req).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domreport.ErrSubmissionInFlight, http.StatusConflict},
		{domreport.ErrNoResult, http.StatusNotFound},
		{domreport.ErrPatientNameRequired, http.StatusBadRequest},
		{ai.ErrQuotaExceeded, http.StatusTooManyRequests},
		{appreport.ErrAnalysisFailed, http.StatusBadGateway},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
