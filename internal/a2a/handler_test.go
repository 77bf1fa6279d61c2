package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/persona"
	"github.com/BerylCAtieno/clientlens/internal/profiler"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	prepErr error
	calls   int
}

func (s *stubService) PreparePreInterview(ctx context.Context, req models.PreparationRequest) (*models.PreparationResult, error) {
	s.calls++
	if s.prepErr != nil {
		return nil, s.prepErr
	}
	return &models.PreparationResult{
		BackgroundSummary: "Summary for " + req.CustomerName,
		InterviewOutline:  "1. Ice breaking",
		SuggestedStrategy: "Lead with ROI",
	}, nil
}

func (s *stubService) AnalyzePostInterview(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	s.calls++
	return &models.AnalysisResult{
		MeetingReportMarkdown: "# Report for " + req.CustomerName,
		UpdatedPersonaData: models.PersonaPatch{
			Budget: models.String("$750k"),
			Tags:   []string{"Expansion"},
		},
	}, nil
}

type fixture struct {
	router   *gin.Engine
	store    *persona.MemoryStore
	registry *workflow.Registry
	svc      *stubService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seed, err := persona.DefaultSeed()
	require.NoError(t, err)
	store, err := persona.NewMemoryStore(seed)
	require.NoError(t, err)

	svc := &stubService{}
	registry := workflow.NewRegistry(svc, svc, store)
	router := gin.New()
	NewA2AHandler(registry, store, slog.New(slog.NewTextHandler(io.Discard, nil)), "https://lens.example.com").Register(router)
	return &fixture{router: router, store: store, registry: registry, svc: svc}
}

type rpcResult struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  *TaskResult   `json:"result"`
	Error   *JSONRPCError `json:"error"`
}

func (f *fixture) post(t *testing.T, body string) rpcResult {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/a2a/clientlens", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out rpcResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (f *fixture) send(t *testing.T, taskID string, parts ...MessagePart) rpcResult {
	t.Helper()
	msg := A2AMessage{Kind: "message", Role: RoleUser, Parts: parts, MessageID: "m-1", ContextID: "ctx-1"}
	if taskID != "" {
		msg.TaskID = &taskID
	}
	params, err := json.Marshal(MessageParams{Message: msg})
	require.NoError(t, err)
	body, err := json.Marshal(JSONRPCRequest{JSONRPC: "2.0", ID: "req-1", Method: "message/send", Params: params})
	require.NoError(t, err)
	return f.post(t, string(body))
}

func statusText(r *TaskResult) string {
	var b bytes.Buffer
	for _, p := range r.Status.Message.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func TestHandleMessage_Preparation(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "", TextPart("customer name: Jane Doe\ncompany: Acme Corp\ninternal notes: Cloud renewal\nexternal info: Series B"))

	require.Nil(t, res.Error)
	require.NotNil(t, res.Result)
	assert.Equal(t, "req-1", res.ID)
	assert.Equal(t, StateCompleted, res.Result.Status.State)
	assert.Equal(t, "ctx-1", res.Result.ContextID)
	assert.Contains(t, statusText(res.Result), "Summary for Jane Doe")
	require.Len(t, res.Result.Artifacts, 1)
	assert.Equal(t, "Interview Brief", res.Result.Artifacts[0].Name)

	preps, _ := f.registry.Len()
	assert.Zero(t, preps)
}

func TestHandleMessage_PreparationMissingFields(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "", TextPart("customer name: Jane Doe"))

	require.NotNil(t, res.Result)
	assert.Equal(t, StateFailed, res.Result.Status.State)
	assert.Contains(t, statusText(res.Result), "key: value")
	assert.Zero(t, f.svc.calls)
}

func TestHandleMessage_PreparationModelFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.prepErr = &profiler.GenerationFailure{Task: profiler.TaskPreparation, Attempts: 2, Cause: profiler.ErrRetryExhausted}

	res := f.send(t, "", DataPart(map[string]any{
		"customerName": "Jane", "companyName": "Acme", "internalNotes": "n", "externalInfo": "e",
	}))

	require.NotNil(t, res.Result)
	assert.Equal(t, StateFailed, res.Result.Status.State)
	assert.Contains(t, statusText(res.Result), "Failed to prepare")
}

func TestHandleMessage_AnalysisConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.send(t, "", TextPart("customer: Marcus Chen\nnotes: Budget expanded to $750k"))
	require.NotNil(t, res.Result)
	assert.Equal(t, StateInputRequired, res.Result.Status.State)
	assert.Contains(t, statusText(res.Result), "# Report for Marcus Chen")
	taskID := res.Result.ID

	before, err := f.store.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "$500k Project Cap", before.Budget)

	res = f.send(t, taskID, TextPart("confirm"))
	require.NotNil(t, res.Result)
	assert.Equal(t, StateCompleted, res.Result.Status.State)
	assert.Equal(t, taskID, res.Result.ID)
	assert.Contains(t, statusText(res.Result), "Database updated successfully!")

	after, err := f.store.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "$750k", after.Budget)
	assert.Equal(t, []string{"Expansion"}, after.Tags)
	assert.NotEmpty(t, after.LastInterviewDate)

	_, err = f.registry.Analysis(taskID)
	assert.ErrorIs(t, err, workflow.ErrUnknownWorkflow)
}

func TestHandleMessage_AnalysisDiscard(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "", DataPart(map[string]any{"customerId": "2", "interviewNotes": "All good"}))
	require.NotNil(t, res.Result)
	require.Equal(t, StateInputRequired, res.Result.Status.State)

	res = f.send(t, res.Result.ID, TextPart("discard"))
	require.NotNil(t, res.Result)
	assert.Equal(t, StateCanceled, res.Result.Status.State)

	p, err := f.store.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "$500k Project Cap", p.Budget)
}

func TestHandleMessage_AnalysisUnknownCustomer(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "", TextPart("customer id: 99\nnotes: hello"))

	require.NotNil(t, res.Result)
	assert.Equal(t, StateFailed, res.Result.Status.State)
	assert.Zero(t, f.svc.calls)
	_, analyses := f.registry.Len()
	assert.Zero(t, analyses)
}

func TestHandleMessage_UnrecognisedRequest(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "", TextPart("hello there"))

	require.NotNil(t, res.Result)
	assert.Equal(t, StateFailed, res.Result.Status.State)
	assert.Zero(t, f.svc.calls)
}

func TestHandleMessage_RPCErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{"jsonrpc":`, CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"message/send"}`, CodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{}}`, CodeMethodNotFound},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"message/send","params":"x"}`, CodeInvalidParams},
		{"empty direct message", `{"message":{"parts":[]}}`, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newFixture(t).post(t, tt.body)
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.code, res.Error.Code)
			assert.Nil(t, res.Result)
		})
	}
}

func TestHandleMessage_DirectMessage(t *testing.T) {
	f := newFixture(t)

	res := f.post(t, `{"message":{"kind":"message","role":"user","parts":[{"kind":"text","text":"customer id: 1\nnotes: Wants SSO"}]}}`)

	require.NotNil(t, res.Result)
	assert.Equal(t, "direct-message", res.ID)
	assert.Equal(t, StateInputRequired, res.Result.Status.State)
}

func TestServeAgentCard(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/agent.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var card struct {
		Name   string `json:"name"`
		URL    string `json:"url"`
		Skills []struct {
			ID string `json:"id"`
		} `json:"skills"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "ClientLens", card.Name)
	assert.Equal(t, "https://lens.example.com/a2a/clientlens", card.URL)
	require.Len(t, card.Skills, 2)
	assert.Equal(t, "pre-interview-brief", card.Skills[0].ID)
}

func TestFailureTextMentionsUsageForInvalidInput(t *testing.T) {
	err := fmt.Errorf("customer name: %w", models.ErrInvalidInput)
	assert.Contains(t, failureText("x", err), usage)
	assert.NotContains(t, failureText("x", persona.ErrNotFound), usage)
}
