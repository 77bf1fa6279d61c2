// Package a2a serves ClientLens as an A2A agent over JSON-RPC.
package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/persona"
	"github.com/BerylCAtieno/clientlens/internal/report"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const usage = "Send either a preparation request (customer name, company, internal notes, external info) " +
	"or an analysis request (customer id, notes), one \"key: value\" per line."

type A2AHandler struct {
	registry *workflow.Registry
	store    persona.Store
	logger   *slog.Logger
	baseURL  string
}

func NewA2AHandler(registry *workflow.Registry, store persona.Store, logger *slog.Logger, baseURL string) *A2AHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &A2AHandler{
		registry: registry,
		store:    store,
		logger:   logger,
		baseURL:  baseURL,
	}
}

// Register mounts the agent card and the JSON-RPC endpoint.
func (h *A2AHandler) Register(r gin.IRouter) {
	r.GET("/.well-known/agent.json", h.ServeAgentCard)
	r.POST("/a2a/clientlens", RequestLoggingMiddleware(h.logger), h.HandleMessage)
}

// RequestLoggingMiddleware logs each agent request at debug level.
func RequestLoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.DebugContext(c.Request.Context(), "a2a request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int64("bytes", c.Request.ContentLength),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}

// HandleMessage processes A2A messages.
func (h *A2AHandler) HandleMessage(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.sendErrorResponse(c, nil, "Failed to read request body", CodeParseError)
		return
	}

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(body, &rpcReq); err != nil {
		h.sendErrorResponse(c, nil, "Invalid JSON", CodeParseError)
		return
	}
	if rpcReq.JSONRPC == "" && rpcReq.Method == "" {
		// Some clients post the message params without the JSON-RPC envelope.
		h.handleDirectMessage(c, body)
		return
	}
	if rpcReq.JSONRPC != "2.0" {
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "message/send", "agent/task":
		var params MessageParams
		if err := json.Unmarshal(rpcReq.Params, &params); err != nil {
			h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
			return
		}
		h.sendSuccessResponse(c, rpcReq.ID, h.handleTask(c.Request.Context(), params.Message))
	default:
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *A2AHandler) handleDirectMessage(c *gin.Context, body []byte) {
	var params MessageParams
	if err := json.Unmarshal(body, &params); err != nil || len(params.Message.Parts) == 0 {
		h.sendErrorResponse(c, nil, "Invalid request format", CodeInvalidRequest)
		return
	}
	h.sendSuccessResponse(c, "direct-message", h.handleTask(c.Request.Context(), params.Message))
}

func (h *A2AHandler) handleTask(ctx context.Context, msg A2AMessage) TaskResult {
	req := parseMessage(msg)

	if msg.TaskID != nil && *msg.TaskID != "" {
		if a, err := h.registry.Analysis(*msg.TaskID); err == nil {
			return h.continueAnalysis(ctx, a, msg.ContextID, req)
		}
	}

	switch h.intent(req) {
	case workflow.KindPreparation:
		return h.runPreparation(ctx, msg.ContextID, req)
	case workflow.KindAnalysis:
		return h.runAnalysis(ctx, msg.ContextID, req)
	}
	return createErrorTaskResult(uuid.NewString(), msg.ContextID, usage)
}

func (h *A2AHandler) intent(req request) workflow.Kind {
	switch strings.ToLower(req.get("task")) {
	case "preparation", "prepare", "brief":
		return workflow.KindPreparation
	case "analysis", "analyze", "analyse", "report":
		return workflow.KindAnalysis
	}
	if req.get("customerId") != "" || req.get("interviewNotes") != "" {
		return workflow.KindAnalysis
	}
	if req.get("customerName") != "" || req.get("companyName") != "" {
		return workflow.KindPreparation
	}
	return ""
}

func (h *A2AHandler) runPreparation(ctx context.Context, contextID string, req request) TaskResult {
	p := h.registry.NewPreparation()
	defer h.registry.RemovePreparation(p.ID())

	input := models.PreparationRequest{
		CustomerName:  req.get("customerName"),
		CompanyName:   req.get("companyName"),
		InternalNotes: req.get("internalNotes"),
		ExternalInfo:  req.get("externalInfo"),
	}
	p.SetInput(input)

	res, err := p.Submit(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "preparation failed", slog.String("task", p.ID()), slog.Any("error", err))
		return createErrorTaskResult(p.ID(), contextID, failureText("Failed to prepare the interview brief", err))
	}

	brief := report.Brief(input, *res)
	return createTaskResult(p.ID(), contextID, StateCompleted, brief, Artifact{
		ArtifactID: uuid.NewString(),
		Name:       "Interview Brief",
		Parts:      []MessagePart{TextPart(brief), DataPart(res)},
	})
}

func (h *A2AHandler) runAnalysis(ctx context.Context, contextID string, req request) TaskResult {
	a := h.registry.NewAnalysis()

	customerID := req.get("customerId")
	if customerID == "" {
		customerID = h.lookupCustomer(ctx, req.get("customerName"))
	}
	if err := a.Select(ctx, customerID); err != nil {
		h.registry.RemoveAnalysis(a.ID())
		return createErrorTaskResult(a.ID(), contextID, failureText("Unknown customer", err))
	}
	a.SetNotes(req.get("interviewNotes"))

	res, err := a.Submit(ctx)
	if err != nil {
		h.registry.RemoveAnalysis(a.ID())
		h.logger.WarnContext(ctx, "analysis failed", slog.String("task", a.ID()), slog.Any("error", err))
		return createErrorTaskResult(a.ID(), contextID, failureText("Failed to analyze the interview", err))
	}

	snap := a.Snapshot()
	text := report.Analysis(snap.CustomerName, *res) +
		"\nReply \"confirm\" on this task to update the persona database, or \"discard\" to drop the update."
	return createTaskResult(a.ID(), contextID, StateInputRequired, text, Artifact{
		ArtifactID: uuid.NewString(),
		Name:       "Meeting Report",
		Parts:      []MessagePart{TextPart(res.MeetingReportMarkdown), DataPart(res.UpdatedPersonaData)},
	})
}

func (h *A2AHandler) continueAnalysis(ctx context.Context, a *workflow.Analysis, contextID string, req request) TaskResult {
	switch strings.ToLower(strings.Trim(req.text, " .!\n")) {
	case "confirm", "yes", "apply":
		updated, err := a.Confirm(ctx)
		if err != nil {
			return createErrorTaskResult(a.ID(), contextID, failureText("Failed to update the persona", err))
		}
		h.registry.RemoveAnalysis(a.ID())
		text := "Database updated successfully!\n\n" + report.PersonaDetail(updated)
		return createTaskResult(a.ID(), contextID, StateCompleted, text, Artifact{
			ArtifactID: uuid.NewString(),
			Name:       "Updated Persona",
			Parts:      []MessagePart{DataPart(updated)},
		})
	case "discard", "no", "cancel":
		h.registry.RemoveAnalysis(a.ID())
		return createTaskResult(a.ID(), contextID, StateCanceled, "Update discarded. The persona database was not changed.")
	}

	snap := a.Snapshot()
	if snap.State != workflow.StateResult {
		return createErrorTaskResult(a.ID(), contextID, "This analysis has no pending update.")
	}
	return createTaskResult(a.ID(), contextID, StateInputRequired,
		"Reply \"confirm\" to apply the detected updates or \"discard\" to drop them.")
}

// lookupCustomer finds a persona id by exact (case-insensitive) name.
func (h *A2AHandler) lookupCustomer(ctx context.Context, name string) string {
	if name == "" {
		return ""
	}
	personas, err := h.store.List(ctx)
	if err != nil {
		return ""
	}
	for _, p := range personas {
		if strings.EqualFold(p.Name, name) {
			return p.ID
		}
	}
	return name
}

// ServeAgentCard serves the agent card.
func (h *A2AHandler) ServeAgentCard(c *gin.Context) {
	card, err := AgentCard(h.baseURL)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "agent card unavailable", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent card not available"})
		return
	}
	c.Data(http.StatusOK, "application/json", card)
}

func failureText(prefix string, err error) string {
	if errors.Is(err, models.ErrInvalidInput) {
		return fmt.Sprintf("%s: %v. %s", prefix, err, usage)
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}

func createTaskResult(taskID, contextID, state, text string, artifacts ...Artifact) TaskResult {
	return TaskResult{
		ID:        taskID,
		ContextID: contextID,
		Kind:      "task",
		Status: TaskStatus{
			State:     state,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.NewString(),
				TaskID:    &taskID,
				ContextID: contextID,
				Parts:     []MessagePart{TextPart(text)},
			},
		},
		Artifacts: artifacts,
	}
}

func createErrorTaskResult(taskID, contextID, errorMsg string) TaskResult {
	return createTaskResult(taskID, contextID, StateFailed, errorMsg)
}

func (h *A2AHandler) sendSuccessResponse(c *gin.Context, id any, result TaskResult) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (h *A2AHandler) sendErrorResponse(c *gin.Context, id any, message string, code int) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	})
}
