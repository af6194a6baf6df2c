package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/rating"
	"gorm.io/gorm"
)

func testRepo(t *testing.T) (Repository, *gorm.DB) {
	t.Helper()
	db, err := OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return NewSQLiteRepository(db), db
}

func TestMarkEventOnceFirstWriterWins(t *testing.T) {
	repo, _ := testRepo(t)

	first, err := repo.MarkEventOnce(1, "daily_login:2025-03-10")
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if !first {
		t.Fatal("first mark reported as repeat")
	}

	repeat, err := repo.MarkEventOnce(1, "daily_login:2025-03-10")
	if err != nil {
		t.Fatalf("repeat mark: %v", err)
	}
	if repeat {
		t.Fatal("repeat mark reported as first")
	}

	// A different key or player is an independent mark.
	if ok, err := repo.MarkEventOnce(1, "daily_login:2025-03-11"); err != nil || !ok {
		t.Fatalf("next-day mark: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.MarkEventOnce(2, "daily_login:2025-03-10"); err != nil || !ok {
		t.Fatalf("other-player mark: ok=%v err=%v", ok, err)
	}
}

func TestJoinQueueParksWhenNobodyWaits(t *testing.T) {
	repo, _ := testRepo(t)

	duel, err := repo.JoinQueue(1)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if duel != nil {
		t.Fatalf("matched against an empty queue: %+v", duel)
	}
	if in, err := repo.InQueue(1); err != nil || !in {
		t.Fatalf("joiner not parked: in=%v err=%v", in, err)
	}

	// Re-joining never matches the player against themselves.
	duel, err = repo.JoinQueue(1)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if duel != nil {
		t.Fatalf("player matched against themselves: %+v", duel)
	}
	if n, err := repo.QueueSize(); err != nil || n != 1 {
		t.Fatalf("queue size = %d (err %v), want 1", n, err)
	}
}

func TestJoinQueuePopsTheOldestWaiting(t *testing.T) {
	repo, db := testRepo(t)

	base := time.Now().Add(-time.Minute)
	for i, id := range []int64{1, 2} {
		entry := game.QueueEntry{PlayerID: id, JoinedAt: base.Add(time.Duration(i) * time.Second)}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("seed queue: %v", err)
		}
	}

	duel, err := repo.JoinQueue(3)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if duel == nil {
		t.Fatal("no match against a seeded queue")
	}
	if duel.PlayerA != 1 || duel.PlayerB != 3 {
		t.Fatalf("matched %d vs %d, want 1 vs 3", duel.PlayerA, duel.PlayerB)
	}

	// Only the popped opponent leaves the queue.
	if in, err := repo.InQueue(1); err != nil || in {
		t.Fatalf("popped opponent still queued: in=%v err=%v", in, err)
	}
	if in, err := repo.InQueue(2); err != nil || !in {
		t.Fatalf("bystander lost their place: in=%v err=%v", in, err)
	}

	// The second joiner pairs with the remaining entry; nobody is
	// matched twice off one queue row.
	duel, err = repo.JoinQueue(4)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if duel == nil || duel.PlayerA != 2 || duel.PlayerB != 4 {
		t.Fatalf("second match = %+v, want 2 vs 4", duel)
	}
	if n, err := repo.QueueSize(); err != nil || n != 0 {
		t.Fatalf("queue size = %d (err %v), want 0", n, err)
	}
}

func TestAdjustCoinsClampsAtZero(t *testing.T) {
	repo, _ := testRepo(t)

	if _, err := repo.UpsertPlayer(7, "Vera"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.AdjustCoins(7, 30); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := repo.AdjustCoins(7, -100); err != nil {
		t.Fatalf("debit: %v", err)
	}

	p, err := repo.GetPlayer(7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Coins != 0 {
		t.Fatalf("coins = %d, want 0", p.Coins)
	}
}

func TestRecordDuelResultMovesAllScales(t *testing.T) {
	repo, _ := testRepo(t)

	if err := repo.RecordDuelResult(1, 2); err != nil {
		t.Fatalf("record: %v", err)
	}

	winner, err := repo.EloFor(1)
	if err != nil {
		t.Fatalf("winner elo: %v", err)
	}
	loser, err := repo.EloFor(2)
	if err != nil {
		t.Fatalf("loser elo: %v", err)
	}

	for _, c := range []struct {
		name string
		w, l int
	}{
		{"day", winner.Day, loser.Day},
		{"week", winner.Week, loser.Week},
		{"month", winner.Month, loser.Month},
		{"all", winner.All, loser.All},
	} {
		if c.w <= rating.Start {
			t.Fatalf("%s: winner at %d, want above %d", c.name, c.w, rating.Start)
		}
		if c.l >= rating.Start {
			t.Fatalf("%s: loser at %d, want below %d", c.name, c.l, rating.Start)
		}
	}
	if winner.Wins != 1 || loser.Losses != 1 {
		t.Fatalf("tallies: winner %d wins, loser %d losses", winner.Wins, loser.Losses)
	}
}
