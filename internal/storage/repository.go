package storage

import (
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/rating"
)

type Repository interface {
	// Transaction runs fn against a repository bound to a single database
	// transaction. An error from fn rolls everything back.
	Transaction(fn func(Repository) error) error

	// Players
	UpsertPlayer(playerID int64, name string) (*game.Player, error)
	GetPlayer(playerID int64) (*game.Player, error)
	GetPlayerLevel(playerID int64) (int, error)
	UpdatePlayer(p *game.Player) error

	// Holdings. GiveItem upserts the inventory quantity; AdjustCoins never
	// lets the balance drop below zero.
	GiveItem(playerID int64, drop game.LootDrop) error
	AdjustCoins(playerID int64, delta int64) error
	AddXP(playerID int64, amount int64) error
	AdjustCharms(playerID int64, delta int64) error

	// Content lookups used by the catalog cache.
	DropEntries(areaKey, resource string) ([]game.DropEntry, error)
	MobNames(areaKey string) ([]string, error)
	GetRaceByKey(key string) (*game.Race, error)
	GetClassByKey(key string) (*game.Class, error)

	// Idempotency guard. MarkEventOnce reports true exactly once per
	// (player, event key) pair; repeats return false with no error.
	MarkEventOnce(playerID int64, eventKey string) (bool, error)

	// Arena queue. JoinQueue either parks the player or pops the oldest
	// waiting opponent and creates the duel row, atomically.
	JoinQueue(playerID int64) (*game.Duel, error)
	LeaveQueue(playerID int64) error
	InQueue(playerID int64) (bool, error)
	QueueSize() (int64, error)

	// Duels and ratings.
	ActiveDuelFor(playerID int64) (*game.Duel, error)
	ActiveDuelCount() (int64, error)
	MarkDuelFinished(duelID uint, winner, loser int64) error
	RecordDuelResult(winner, loser int64) error
	EloFor(playerID int64) (*game.EloRating, error)
	Ladder(scale rating.Scale, limit int) ([]game.EloRating, error)
	RankFor(playerID int64, scale rating.Scale) (int64, error)
	// ResetScale returns every rating on the scale to the starting value,
	// opening a fresh period ladder.
	ResetScale(scale rating.Scale) error
}
