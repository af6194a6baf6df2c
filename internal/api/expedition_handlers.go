package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/expedition"
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/logging"
)

type StartExpeditionPayload struct {
	AreaKey  string `json:"area_key"`
	Risk     string `json:"risk"`
	Resource string `json:"resource"`
}

// StartExpedition begins a new expedition, replacing any active one.
func (h *Handler) StartExpedition(c *gin.Context) {
	var req StartExpeditionPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.AreaKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	view, err := h.expeditions.Start(c.Request.Context(), playerID(c), req.AreaKey, req.Risk, req.Resource)
	if err != nil {
		if errors.Is(err, game.ErrUnknownResource) {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidResource})
			return
		}
		logging.Error("failed to start expedition", err, logging.Fields{constants.LogFieldPlayerID: playerID(c)})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	c.JSON(http.StatusOK, view)
}

type ExpeditionChoicePayload struct {
	ChoiceID string `json:"choice_id"`
}

// SubmitExpeditionChoice resolves one choice token and advances the story.
func (h *Handler) SubmitExpeditionChoice(c *gin.Context) {
	var req ExpeditionChoicePayload
	if err := c.ShouldBindJSON(&req); err != nil || req.ChoiceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	view, err := h.expeditions.Choose(c.Request.Context(), playerID(c), req.ChoiceID)
	if err != nil {
		switch {
		case errors.Is(err, expedition.ErrNoActive):
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrNoActiveExpedition})
		case errors.Is(err, expedition.ErrInvalidChoice):
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidChoice})
		default:
			logging.Error("failed to resolve expedition choice", err, logging.Fields{constants.LogFieldPlayerID: playerID(c)})
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetExpeditionState returns the current expedition snapshot.
func (h *Handler) GetExpeditionState(c *gin.Context) {
	view, err := h.expeditions.StateView(c.Request.Context(), playerID(c))
	if err != nil {
		if errors.Is(err, expedition.ErrNoActive) {
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrNoActiveExpedition})
			return
		}
		logging.Error("failed to read expedition state", err, logging.Fields{constants.LogFieldPlayerID: playerID(c)})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	c.JSON(http.StatusOK, view)
}
