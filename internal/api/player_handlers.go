package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/logging"
	"github.com/veles-tales/wildlands/internal/service"
)

// ClaimDailyLogin grants the once-per-day streak reward. A repeat claim
// on the same day is benign: 200 with the already_claimed flag set.
func (h *Handler) ClaimDailyLogin(c *gin.Context) {
	res, err := h.login.Claim(playerID(c))
	if err != nil {
		if errors.Is(err, service.ErrAlreadyClaimed) {
			c.JSON(http.StatusOK, gin.H{"already_claimed": true})
			return
		}
		logging.Error("failed to claim daily login", err, logging.Fields{constants.LogFieldPlayerID: playerID(c)})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"already_claimed": false,
		"streak":          res.Streak,
		"coins":           res.Coins,
		"xp":              res.XP,
		"charm_found":     res.CharmFound,
	})
}
