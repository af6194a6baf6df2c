package service

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/veles-tales/wildlands/internal/storage"
)

var ErrAlreadyClaimed = errors.New("daily login already claimed")

type loginReward struct {
	Coins int64
	XP    int64
}

// loginRewards is the 7-day streak table; day 8 wraps back to day 1.
var loginRewards = [7]loginReward{
	{Coins: 10, XP: 50},
	{Coins: 20, XP: 70},
	{Coins: 30, XP: 90},
	{Coins: 40, XP: 120},
	{Coins: 50, XP: 150},
	{Coins: 60, XP: 175},
	{Coins: 75, XP: 200},
}

// charmChance is the per-claim probability of the bonus charm.
const charmChance = 0.01

// LoginResult reports what a successful claim granted.
type LoginResult struct {
	Streak     int   `json:"streak"`
	Coins      int64 `json:"coins"`
	XP         int64 `json:"xp"`
	CharmFound bool  `json:"charm_found"`
}

// DailyLogin handles the once-per-day login grant.
type DailyLogin struct {
	store storage.Repository

	rngMu sync.Mutex
	rng   *rand.Rand

	// now is replaceable in tests.
	now func() time.Time
}

func NewDailyLogin(store storage.Repository, rng *rand.Rand) *DailyLogin {
	return &DailyLogin{store: store, rng: rng, now: time.Now}
}

// Claim grants the streak reward for today. Exactly one call per player
// and UTC day succeeds; repeats return ErrAlreadyClaimed. The day mark
// and the reward writes share a transaction, so a failed grant releases
// the mark instead of eating the day.
func (s *DailyLogin) Claim(playerID int64) (*LoginResult, error) {
	today := s.now().UTC()
	eventKey := "daily_login:" + today.Format("2006-01-02")

	s.rngMu.Lock()
	charm := s.rng.Float64() < charmChance
	s.rngMu.Unlock()

	var result *LoginResult
	err := s.store.Transaction(func(tx storage.Repository) error {
		first, err := tx.MarkEventOnce(playerID, eventKey)
		if err != nil {
			return err
		}
		if !first {
			return ErrAlreadyClaimed
		}

		player, err := tx.GetPlayer(playerID)
		if err != nil {
			return err
		}

		streak := 1
		if sameDay(player.LastLogin.UTC(), today.AddDate(0, 0, -1)) {
			streak = player.LoginStreak + 1
		}
		player.LoginStreak = streak
		player.LastLogin = today
		if err := tx.UpdatePlayer(player); err != nil {
			return err
		}

		reward := loginRewards[(streak-1)%len(loginRewards)]
		if err := tx.AdjustCoins(playerID, reward.Coins); err != nil {
			return err
		}
		if err := tx.AddXP(playerID, reward.XP); err != nil {
			return err
		}
		if charm {
			if err := tx.AdjustCharms(playerID, 1); err != nil {
				return err
			}
		}

		result = &LoginResult{Streak: streak, Coins: reward.Coins, XP: reward.XP, CharmFound: charm}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
