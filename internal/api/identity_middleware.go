package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/logging"
)

// initDataUser is the user object embedded in the mini-app init data.
type initDataUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// parseInitData extracts the player identity from the query-string shaped
// init data blob forwarded by the mini-app container. Signature checking
// happens at the edge; here only the identity is needed.
func parseInitData(raw string) (*initDataUser, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	var u initDataUser
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// PlayerUpserter is the repository slice identity resolution needs.
type PlayerUpserter interface {
	UpsertPlayer(playerID int64, name string) (*game.Player, error)
}

// IdentityRequired resolves the player identity from X-Player-Id or
// X-Init-Data and injects it into the request context. The player row is
// upserted so every authenticated request has a hero behind it.
func IdentityRequired(players PlayerUpserter) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, name, ok := resolveIdentity(c)
		if !ok {
			return
		}
		if _, err := players.UpsertPlayer(playerID, name); err != nil {
			logging.Error("identity: failed to upsert player", err, logging.Fields{constants.LogFieldPlayerID: playerID})
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
			return
		}
		c.Set(constants.CtxPlayerID, playerID)
		c.Next()
	}
}

func resolveIdentity(c *gin.Context) (int64, string, bool) {
	if raw := c.GetHeader(constants.HeaderPlayerID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidIdentity})
			return 0, "", false
		}
		return id, "", true
	}
	if raw := c.GetHeader(constants.HeaderInitData); raw != "" {
		u, err := parseInitData(raw)
		if err != nil || u.ID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidIdentity})
			return 0, "", false
		}
		name := u.Username
		if name == "" {
			name = u.FirstName
		}
		return u.ID, name, true
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrMissingIdentity})
	return 0, "", false
}

// playerID reads the identity injected by IdentityRequired.
func playerID(c *gin.Context) int64 {
	v, _ := c.Get(constants.CtxPlayerID)
	id, _ := v.(int64)
	return id
}
