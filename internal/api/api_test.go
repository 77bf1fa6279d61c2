package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/persona"
	"github.com/BerylCAtieno/clientlens/internal/profiler"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	mu      sync.Mutex
	prepErr error
	anErr   error
	calls   int
}

func (s *stubService) PreparePreInterview(ctx context.Context, req models.PreparationRequest) (*models.PreparationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.prepErr != nil {
		return nil, s.prepErr
	}
	return &models.PreparationResult{
		BackgroundSummary: "About " + req.CustomerName,
		InterviewOutline:  "Ice breaking, Discovery, Closing",
		SuggestedStrategy: "Be concise",
	}, nil
}

func (s *stubService) AnalyzePostInterview(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.anErr != nil {
		return nil, s.anErr
	}
	return &models.AnalysisResult{
		MeetingReportMarkdown: "# Meeting with " + req.CustomerName,
		UpdatedPersonaData: models.PersonaPatch{
			Budget: models.String("$650k Approved"),
			Tags:   []string{"Urgent"},
		},
	}, nil
}

type fixture struct {
	router   *gin.Engine
	store    *persona.MemoryStore
	svc      *stubService
	registry *workflow.Registry

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seed, err := persona.DefaultSeed()
	require.NoError(t, err)
	store, err := persona.NewMemoryStore(seed)
	require.NoError(t, err)

	f := &fixture{store: store, svc: &stubService{}, now: time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)}
	f.registry = workflow.NewRegistry(f.svc, f.svc, store, workflow.WithClock(f.clock))
	f.router = gin.New()
	NewHandler(store, f.registry, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(f.router)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPersonas_ListInStoreOrder(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/personas", "")
	require.Equal(t, http.StatusOK, rec.Code)

	personas := decode[[]models.Persona](t, rec)
	require.Len(t, personas, 5)
	for i, id := range []string{"1", "2", "3", "4", "5"} {
		assert.Equal(t, id, personas[i].ID)
	}
}

func TestPersonas_GetAndNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/personas/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sarah Miller", decode[models.Persona](t, rec).Name)

	rec = f.do(t, http.MethodGet, "/api/personas/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersonas_Patch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/personas/1", `{"budget":"$200k","tags":["Renewal"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[models.Persona](t, rec)
	assert.Equal(t, "$200k", p.Budget)
	assert.Equal(t, []string{"Renewal"}, p.Tags)
	assert.Equal(t, "CTO", p.Role)
	assert.Len(t, p.History, 2)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, "/api/personas/99", `{"budget":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/personas/1", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/personas/1", `{"status":"Retired"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/personas/1", `not json`).Code)
}

func TestPreparations_CreateAndFetch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/preparations",
		`{"customerName":"Jane Doe","companyName":"Acme","internalNotes":"n","externalInfo":"e"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decode[workflow.PreparationSnapshot](t, rec)
	assert.Equal(t, workflow.StateResult, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "About Jane Doe", snap.Result.BackgroundSummary)

	rec = f.do(t, http.MethodGet, "/api/preparations/"+snap.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snap.ID, decode[workflow.PreparationSnapshot](t, rec).ID)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/preparations/"+snap.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/preparations/"+snap.ID, "").Code)
}

func TestPreparations_InvalidInputNeverCallsModel(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/preparations", `{"customerName":"Jane Doe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.svc.calls)

	body := decode[map[string]any](t, rec)
	assert.Contains(t, body["error"], "company name is required")
}

func TestPreparations_FailureThenResubmit(t *testing.T) {
	f := newFixture(t)
	f.svc.prepErr = &profiler.GenerationFailure{Task: profiler.TaskPreparation, Cause: profiler.ErrInvalidOutput}

	rec := f.do(t, http.MethodPost, "/api/preparations", `{"customerName":"Jane Doe","companyName":"Acme"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		Error    string                       `json:"error"`
		Workflow workflow.PreparationSnapshot `json:"workflow"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, workflow.StateEditing, body.Workflow.State)
	assert.Equal(t, "Jane Doe", body.Workflow.Input.CustomerName)

	f.svc.prepErr = nil
	rec = f.do(t, http.MethodPost, "/api/preparations/"+body.Workflow.ID+"/submit",
		`{"customerName":"Jane Doe","companyName":"Acme Corp"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[workflow.PreparationSnapshot](t, rec)
	assert.Equal(t, workflow.StateResult, snap.State)
	assert.Equal(t, "Acme Corp", snap.Input.CompanyName)

	rec = f.do(t, http.MethodPost, "/api/preparations/"+body.Workflow.ID+"/submit", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyses_SubmitAndConfirm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/analyses", `{"customerId":"2","interviewNotes":"Budget confirmed."}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decode[workflow.AnalysisSnapshot](t, rec)
	assert.Equal(t, workflow.StateResult, snap.State)
	assert.Equal(t, "Marcus Chen", snap.CustomerName)
	require.NotNil(t, snap.Result)

	rec = f.do(t, http.MethodPost, "/api/analyses/"+snap.ID+"/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var confirmed confirmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.Equal(t, "Database updated successfully!", confirmed.Message)
	assert.Equal(t, "$650k Approved", confirmed.Persona.Budget)
	assert.Equal(t, workflow.StateEditing, confirmed.Workflow.State)
	assert.Empty(t, confirmed.Workflow.Notes)
	assert.Empty(t, confirmed.Workflow.CustomerID)

	stored, err := f.store.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Urgent"}, stored.Tags)
	assert.NotEqual(t, "2023-11-02", stored.LastInterviewDate)

	// Nothing left to confirm.
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/analyses/"+snap.ID+"/confirm", "").Code)
}

func TestAnalyses_Discard(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/analyses", `{"customerId":"5","interviewNotes":"All good."}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	snap := decode[workflow.AnalysisSnapshot](t, rec)

	rec = f.do(t, http.MethodPost, "/api/analyses/"+snap.ID+"/discard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	after := decode[workflow.AnalysisSnapshot](t, rec)
	assert.Nil(t, after.Result)
	assert.Equal(t, "All good.", after.Notes)

	stored, err := f.store.Get(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "$50k/mo", stored.Budget)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/analyses/"+snap.ID, "").Code)
}

func TestAnalyses_Errors(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodPost, "/api/analyses", `{"customerId":"99","interviewNotes":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		f.do(t, http.MethodPost, "/api/analyses", `{"customerId":"2","interviewNotes":"  "}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/analyses/nope", "").Code)

	f.svc.anErr = &profiler.GenerationFailure{Task: profiler.TaskAnalysis, Cause: errors.New("boom")}
	rec := f.do(t, http.MethodPost, "/api/analyses", `{"customerId":"2","interviewNotes":"x"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWorkflows_InvalidCreatesLeaveNothing(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusBadRequest,
			f.do(t, http.MethodPost, "/api/preparations", `{"customerName":"Jane Doe","companyName":" "}`).Code)
		require.Equal(t, http.StatusBadRequest,
			f.do(t, http.MethodPost, "/api/analyses", `{"customerId":"2"}`).Code)
		require.Equal(t, http.StatusNotFound,
			f.do(t, http.MethodPost, "/api/analyses", `{"customerId":"99","interviewNotes":"x"}`).Code)
	}

	preps, analyses := f.registry.Len()
	assert.Zero(t, preps)
	assert.Zero(t, analyses)
	assert.Zero(t, f.svc.calls)
}

func TestWorkflows_IdleWorkflowsExpire(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/preparations", `{"customerName":"Jane Doe","companyName":"Acme"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	idle := decode[workflow.PreparationSnapshot](t, rec)

	f.advance(20 * time.Minute)
	rec = f.do(t, http.MethodPost, "/api/analyses", `{"customerId":"2","interviewNotes":"Budget confirmed."}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	active := decode[workflow.AnalysisSnapshot](t, rec)

	f.advance(15 * time.Minute)
	assert.Equal(t, 1, f.registry.Sweep(30*time.Minute))

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/preparations/"+idle.ID, "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/analyses/"+active.ID, "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/analyses/"+active.ID+"/confirm", "").Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(workflow.ErrBusy))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("other")))
}
