// Package api exposes the HTTP surface: expedition operations, the arena
// queue and duels, ladders and the daily login claim. Handlers translate
// engine sentinel errors into stable machine-readable reason codes.
package api

import (
	"github.com/veles-tales/wildlands/internal/duel"
	"github.com/veles-tales/wildlands/internal/expedition"
	"github.com/veles-tales/wildlands/internal/service"
	"github.com/veles-tales/wildlands/internal/storage"
)

type Handler struct {
	repo        storage.Repository
	expeditions *expedition.Engine
	duels       *duel.Engine
	login       *service.DailyLogin
}

func NewHandler(repo storage.Repository, expeditions *expedition.Engine, duels *duel.Engine, login *service.DailyLogin) *Handler {
	return &Handler{repo: repo, expeditions: expeditions, duels: duels, login: login}
}
