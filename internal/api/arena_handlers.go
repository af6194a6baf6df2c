package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/duel"
	"github.com/veles-tales/wildlands/internal/logging"
	"github.com/veles-tales/wildlands/internal/rating"
)

// JoinQueue parks the player in the matchmaking queue or, when an
// opponent is already waiting, creates the duel immediately.
func (h *Handler) JoinQueue(c *gin.Context) {
	pid := playerID(c)

	if d, err := h.repo.ActiveDuelFor(pid); err == nil {
		c.JSON(http.StatusOK, gin.H{"matched": true, "duel_id": d.ID})
		return
	} else if err != gorm.ErrRecordNotFound {
		logging.Error("failed to check active duel", err, logging.Fields{constants.LogFieldPlayerID: pid})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}

	matched, err := h.repo.JoinQueue(pid)
	if err != nil {
		logging.Error("failed to join queue", err, logging.Fields{constants.LogFieldPlayerID: pid})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	if matched == nil {
		c.JSON(http.StatusOK, gin.H{"matched": false, "queued": true})
		return
	}

	if _, err := h.duels.Create(c.Request.Context(), matched.ID, matched.PlayerA, matched.PlayerB); err != nil {
		logging.Error("failed to create duel state", err, logging.Fields{constants.LogFieldDuelID: matched.ID})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched": true, "duel_id": matched.ID})
}

// LeaveQueue removes the player from the queue. Leaving when not queued
// is a no-op.
func (h *Handler) LeaveQueue(c *gin.Context) {
	pid := playerID(c)
	if err := h.repo.LeaveQueue(pid); err != nil {
		logging.Error("failed to leave queue", err, logging.Fields{constants.LogFieldPlayerID: pid})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queued": false})
}

// QueueMe reports the caller's matchmaking position.
func (h *Handler) QueueMe(c *gin.Context) {
	pid := playerID(c)
	queued, err := h.repo.InQueue(pid)
	if err != nil {
		logging.Error("failed to check queue", err, logging.Fields{constants.LogFieldPlayerID: pid})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	resp := gin.H{"queued": queued}
	if d, err := h.repo.ActiveDuelFor(pid); err == nil {
		resp["duel_id"] = d.ID
	}
	c.JSON(http.StatusOK, resp)
}

// ArenaStatus reports queue depth and open duel count.
func (h *Handler) ArenaStatus(c *gin.Context) {
	queueSize, err := h.repo.QueueSize()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	activeDuels, err := h.repo.ActiveDuelCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue_size": queueSize, "active_duels": activeDuels})
}

// Ladder returns the top ratings for a scale plus the caller's own rank.
func (h *Handler) Ladder(c *gin.Context) {
	scale := rating.NormalizeScale(c.Query("scale"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, err := h.repo.Ladder(scale, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	rank, err := h.repo.RankFor(playerID(c), scale)
	if err != nil {
		logging.Error("failed to resolve own rank", err, logging.Fields{constants.LogFieldPlayerID: playerID(c)})
		rank = 0
	}
	c.JSON(http.StatusOK, gin.H{"scale": scale, "ladder": rows, "your_rank": rank})
}

// ActiveDuel returns the caller's open duel, when one exists.
func (h *Handler) ActiveDuel(c *gin.Context) {
	pid := playerID(c)
	d, err := h.repo.ActiveDuelFor(pid)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrDuelNotFound})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}

	view, err := h.duels.StateFor(c.Request.Context(), d.ID, pid)
	if err != nil {
		h.duelError(c, d.ID, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetDuelState returns the snapshot of one duel for a participant.
func (h *Handler) GetDuelState(c *gin.Context) {
	duelID, ok := duelIDFromQuery(c)
	if !ok {
		return
	}
	view, err := h.duels.StateFor(c.Request.Context(), duelID, playerID(c))
	if err != nil {
		h.duelError(c, duelID, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type DuelActionPayload struct {
	DuelID uint `json:"duel_id"`
}

func (h *Handler) AttackDuel(c *gin.Context) {
	h.duelAction(c, h.duels.Attack)
}

func (h *Handler) HealDuel(c *gin.Context) {
	h.duelAction(c, h.duels.Heal)
}

func (h *Handler) SurrenderDuel(c *gin.Context) {
	h.duelAction(c, h.duels.Surrender)
}

func (h *Handler) duelAction(c *gin.Context, op func(ctx context.Context, duelID uint, playerID int64) (*duel.TurnView, error)) {
	var req DuelActionPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.DuelID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	view, err := op(c.Request.Context(), req.DuelID, playerID(c))
	if err != nil {
		h.duelError(c, req.DuelID, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// duelError maps duel sentinel errors onto reason codes and HTTP statuses.
func (h *Handler) duelError(c *gin.Context, duelID uint, err error) {
	switch {
	case errors.Is(err, duel.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrBusy})
	case errors.Is(err, duel.ErrNotYourTurn):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNotYourTurn})
	case errors.Is(err, duel.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrNotParticipant})
	case errors.Is(err, duel.ErrFinished):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrDuelFinished})
	case errors.Is(err, duel.ErrStateMissing):
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrStateMissing})
	default:
		logging.Error("duel operation failed", err, logging.Fields{constants.LogFieldDuelID: duelID})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
	}
}

func duelIDFromQuery(c *gin.Context) (uint, bool) {
	raw := c.Query("duel_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return 0, false
	}
	return uint(id), true
}
