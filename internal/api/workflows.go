package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/gin-gonic/gin"
)

func bindOptional(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) createPreparation(c *gin.Context) {
	var req models.PreparationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err), nil)
		return
	}

	if err := req.Validate(); err != nil {
		h.fail(c, err, nil)
		return
	}

	p := h.registry.NewPreparation()
	p.SetInput(req)
	h.runPreparation(c, p, http.StatusCreated)
}

func (h *Handler) getPreparation(c *gin.Context) {
	p, err := h.registry.Preparation(c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, p.Snapshot())
}

// submitPreparation retries the workflow, optionally with new input.
func (h *Handler) submitPreparation(c *gin.Context) {
	p, err := h.registry.Preparation(c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if c.Request.ContentLength != 0 {
		var req models.PreparationRequest
		if err := bindOptional(c, &req); err != nil {
			h.fail(c, err, p.Snapshot())
			return
		}
		p.SetInput(req)
	}
	h.runPreparation(c, p, http.StatusOK)
}

func (h *Handler) runPreparation(c *gin.Context, p *workflow.Preparation, okStatus int) {
	if _, err := p.Submit(c.Request.Context()); err != nil {
		h.fail(c, err, p.Snapshot())
		return
	}
	c.JSON(okStatus, p.Snapshot())
}

func (h *Handler) deletePreparation(c *gin.Context) {
	if err := h.registry.RemovePreparation(c.Param("id")); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

type analysisInput struct {
	CustomerID     *string `json:"customerId"`
	InterviewNotes *string `json:"interviewNotes"`
}

func (h *Handler) applyAnalysisInput(c *gin.Context, a *workflow.Analysis, in analysisInput) error {
	if in.CustomerID != nil {
		if err := a.Select(c.Request.Context(), *in.CustomerID); err != nil {
			return err
		}
	}
	if in.InterviewNotes != nil {
		a.SetNotes(*in.InterviewNotes)
	}
	return nil
}

func (h *Handler) createAnalysis(c *gin.Context) {
	var in analysisInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err), nil)
		return
	}

	a := h.registry.NewAnalysis()
	if err := h.applyAnalysisInput(c, a, in); err != nil {
		h.registry.RemoveAnalysis(a.ID())
		h.fail(c, err, nil)
		return
	}
	// A create that never reached the model leaves nothing behind.
	if _, err := a.Submit(c.Request.Context()); err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			h.registry.RemoveAnalysis(a.ID())
			h.fail(c, err, nil)
			return
		}
		h.fail(c, err, a.Snapshot())
		return
	}
	c.JSON(http.StatusCreated, a.Snapshot())
}

func (h *Handler) getAnalysis(c *gin.Context) {
	a, err := h.registry.Analysis(c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, a.Snapshot())
}

func (h *Handler) submitAnalysis(c *gin.Context) {
	a, err := h.registry.Analysis(c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	var in analysisInput
	if err := bindOptional(c, &in); err != nil {
		h.fail(c, err, a.Snapshot())
		return
	}
	if err := h.applyAnalysisInput(c, a, in); err != nil {
		h.fail(c, err, a.Snapshot())
		return
	}
	h.runAnalysis(c, a, http.StatusOK)
}

func (h *Handler) runAnalysis(c *gin.Context, a *workflow.Analysis, okStatus int) {
	if _, err := a.Submit(c.Request.Context()); err != nil {
		h.fail(c, err, a.Snapshot())
		return
	}
	c.JSON(okStatus, a.Snapshot())
}

type confirmResponse struct {
	Message  string                    `json:"message"`
	Persona  models.Persona            `json:"persona"`
	Workflow workflow.AnalysisSnapshot `json:"workflow"`
}

func (h *Handler) confirmAnalysis(c *gin.Context) {
	a, err := h.registry.Analysis(c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	updated, err := a.Confirm(c.Request.Context())
	if err != nil {
		h.fail(c, err, a.Snapshot())
		return
	}
	c.JSON(http.StatusOK, confirmResponse{
		Message:  "Database updated successfully!",
		Persona:  updated,
		Workflow: a.Snapshot(),
	})
}

func (h *Handler) discardAnalysis(c *gin.Context) {
	a, err := h.registry.Analysis(c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if err := a.Discard(); err != nil {
		h.fail(c, err, a.Snapshot())
		return
	}
	c.JSON(http.StatusOK, a.Snapshot())
}

func (h *Handler) deleteAnalysis(c *gin.Context) {
	if err := h.registry.RemoveAnalysis(c.Param("id")); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}
