package api

import (
	"fmt"
	"net/http"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) listPersonas(c *gin.Context) {
	personas, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, personas)
}

func (h *Handler) getPersona(c *gin.Context) {
	p, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) patchPersona(c *gin.Context) {
	var patch models.PersonaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err), nil)
		return
	}
	if patch.IsEmpty() {
		h.fail(c, fmt.Errorf("%w: patch has no fields", models.ErrInvalidInput), nil)
		return
	}

	p, err := h.store.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, p)
}
