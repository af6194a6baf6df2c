package service

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/storage"
)

type mockLoginStore struct {
	storage.Repository

	marks     map[string]bool
	player    *game.Player
	coins     int64
	xp        int64
	charms    int64
	updated   bool
	coinsFail error
}

func newMockLoginStore(p *game.Player) *mockLoginStore {
	return &mockLoginStore{marks: map[string]bool{}, player: p}
}

func (m *mockLoginStore) Transaction(fn func(storage.Repository) error) error {
	return fn(m)
}

func (m *mockLoginStore) MarkEventOnce(playerID int64, eventKey string) (bool, error) {
	if m.marks[eventKey] {
		return false, nil
	}
	m.marks[eventKey] = true
	return true, nil
}

func (m *mockLoginStore) GetPlayer(int64) (*game.Player, error) {
	cp := *m.player
	return &cp, nil
}

func (m *mockLoginStore) UpdatePlayer(p *game.Player) error {
	cp := *p
	m.player = &cp
	m.updated = true
	return nil
}

func (m *mockLoginStore) AdjustCoins(_ int64, delta int64) error {
	if m.coinsFail != nil {
		return m.coinsFail
	}
	m.coins += delta
	return nil
}

func (m *mockLoginStore) AddXP(_ int64, amount int64) error {
	m.xp += amount
	return nil
}

func (m *mockLoginStore) AdjustCharms(_ int64, delta int64) error {
	m.charms += delta
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
}

func newTestLogin(store storage.Repository) *DailyLogin {
	s := NewDailyLogin(store, rand.New(rand.NewSource(1)))
	s.now = fixedNow
	return s
}

func TestClaimGrantsDayOneReward(t *testing.T) {
	store := newMockLoginStore(&game.Player{PlayerID: 1, Level: 1})
	s := newTestLogin(store)

	res, err := s.Claim(1)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Streak != 1 {
		t.Fatalf("streak = %d, want 1", res.Streak)
	}
	if store.coins != 10 || store.xp != 50 {
		t.Fatalf("granted %d coins %d xp, want 10/50", store.coins, store.xp)
	}
	if !store.updated || store.player.LoginStreak != 1 {
		t.Fatalf("player not updated: %+v", store.player)
	}
}

func TestClaimTwiceSameDayIsRejected(t *testing.T) {
	store := newMockLoginStore(&game.Player{PlayerID: 1, Level: 1})
	s := newTestLogin(store)

	if _, err := s.Claim(1); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := s.Claim(1); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("second claim: got %v, want ErrAlreadyClaimed", err)
	}
	if store.coins != 10 {
		t.Fatalf("coins granted twice: %d", store.coins)
	}
}

func TestConsecutiveDaysExtendTheStreak(t *testing.T) {
	store := newMockLoginStore(&game.Player{
		PlayerID:    1,
		Level:       1,
		LastLogin:   fixedNow().AddDate(0, 0, -1),
		LoginStreak: 3,
	})
	s := newTestLogin(store)

	res, err := s.Claim(1)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Streak != 4 {
		t.Fatalf("streak = %d, want 4", res.Streak)
	}
	if store.coins != 40 || store.xp != 120 {
		t.Fatalf("granted %d coins %d xp, want 40/120", store.coins, store.xp)
	}
}

func TestMissedDayResetsTheStreak(t *testing.T) {
	store := newMockLoginStore(&game.Player{
		PlayerID:    1,
		Level:       1,
		LastLogin:   fixedNow().AddDate(0, 0, -3),
		LoginStreak: 6,
	})
	s := newTestLogin(store)

	res, err := s.Claim(1)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Streak != 1 {
		t.Fatalf("streak = %d, want 1", res.Streak)
	}
}

func TestStreakWrapsAfterSevenDays(t *testing.T) {
	store := newMockLoginStore(&game.Player{
		PlayerID:    1,
		Level:       1,
		LastLogin:   fixedNow().AddDate(0, 0, -1),
		LoginStreak: 7,
	})
	s := newTestLogin(store)

	res, err := s.Claim(1)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Streak != 8 {
		t.Fatalf("streak = %d, want 8", res.Streak)
	}
	// Day 8 wraps back to the day-1 reward.
	if store.coins != 10 || store.xp != 50 {
		t.Fatalf("granted %d coins %d xp, want 10/50", store.coins, store.xp)
	}
}

func TestFailedGrantSurfacesTheError(t *testing.T) {
	store := newMockLoginStore(&game.Player{PlayerID: 1, Level: 1})
	store.coinsFail = errors.New("disk full")
	s := newTestLogin(store)

	if _, err := s.Claim(1); err == nil {
		t.Fatal("claim succeeded despite failed coin grant")
	}
	if store.xp != 0 {
		t.Fatalf("xp granted after failed coin grant: %d", store.xp)
	}
}
