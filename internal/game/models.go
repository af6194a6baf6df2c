package game

import (
	"time"

	"gorm.io/gorm"
)

// Player is the persistent hero row. PlayerID is the external identity
// (resolved upstream by the mini-app container) and is distinct from the
// surrogate gorm primary key.
type Player struct {
	gorm.Model
	PlayerID int64  `json:"player_id" gorm:"uniqueIndex"`
	Name     string `json:"name"`
	Level    int    `json:"level" gorm:"default:1"`
	XP       int64  `json:"xp"`
	// Coins is the soft currency; never allowed below zero.
	Coins int64 `json:"coins"`
	// Charms is the rare premium token occasionally granted by daily login.
	Charms      int64     `json:"charms"`
	RaceKey     string    `json:"race_key"`
	ClassKey    string    `json:"class_key"`
	LastLogin   time.Time `json:"last_login"`
	LoginStreak int       `json:"login_streak"`
}

// Item is a catalog entry. Gameplay rows (drop tables, inventory) reference
// items by code so content reseeds do not invalidate player holdings.
type Item struct {
	gorm.Model
	Code     string `json:"code" gorm:"uniqueIndex"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Category string `json:"category"`
}

// DropEntry defines one droppable item for an (area, resource) pair.
// DropChance is a percentage 1..100; quantity is uniform in [MinQty, MaxQty].
type DropEntry struct {
	gorm.Model
	AreaKey    string `json:"area_key" gorm:"index:idx_area_drops_lookup"`
	Resource   string `json:"resource" gorm:"index:idx_area_drops_lookup"`
	ItemID     uint   `json:"item_id"`
	Item       Item   `json:"-"`
	DropChance int    `json:"drop_chance"`
	MinQty     int    `json:"min_qty"`
	MaxQty     int    `json:"max_qty"`
	MinLevel   int    `json:"min_level"`
}

func (DropEntry) TableName() string { return "area_drops" }

// MobEntry is one possible ambush creature for an area.
type MobEntry struct {
	gorm.Model
	AreaKey string `json:"area_key" gorm:"index"`
	Name    string `json:"name"`
}

func (MobEntry) TableName() string { return "area_mobs" }

// Race and Class carry passive combat modifiers as a JSON array of
// {modifier: value} objects, aggregated by the stats provider.
type Race struct {
	gorm.Model
	Key      string `json:"key" gorm:"uniqueIndex"`
	Name     string `json:"name"`
	Passives string `json:"passives" gorm:"type:text"`
}

type Class struct {
	gorm.Model
	Key      string `json:"key" gorm:"uniqueIndex"`
	Name     string `json:"name"`
	Passives string `json:"passives" gorm:"type:text"`
}

// InventoryItem is a player's holding of one item code. Credits upsert the
// quantity rather than appending rows.
type InventoryItem struct {
	gorm.Model
	PlayerID int64  `json:"-" gorm:"uniqueIndex:idx_inventory_player_item"`
	ItemCode string `json:"item_code" gorm:"uniqueIndex:idx_inventory_player_item"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Quantity int    `json:"quantity"`
}

func (InventoryItem) TableName() string { return "player_inventory" }

// Duel is the durable record of an arena duel. The turn-by-turn state lives
// in the key-value store; this row is the source of truth for whether a
// duel is still open.
type Duel struct {
	gorm.Model
	PlayerA int64  `json:"player_a" gorm:"index"`
	PlayerB int64  `json:"player_b" gorm:"index"`
	Status  string `json:"status" gorm:"index;default:active"`
}

func (Duel) TableName() string { return "arena_duels" }

const (
	DuelStatusActive   = "active"
	DuelStatusFinished = "finished"
)

// QueueEntry is a player waiting for an opponent. Matching pops the oldest
// other entry atomically, so PlayerID is the primary key.
type QueueEntry struct {
	PlayerID int64     `json:"player_id" gorm:"primaryKey"`
	JoinedAt time.Time `json:"joined_at" gorm:"index"`
}

func (QueueEntry) TableName() string { return "arena_queue" }

// EloRating holds the four period scales plus win/loss counters.
type EloRating struct {
	PlayerID  int64     `json:"player_id" gorm:"primaryKey"`
	Day       int       `json:"day" gorm:"column:elo_day;default:1000"`
	Week      int       `json:"week" gorm:"column:elo_week;default:1000"`
	Month     int       `json:"month" gorm:"column:elo_month;default:1000"`
	All       int       `json:"all" gorm:"column:elo_all;default:1000"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EloRating) TableName() string { return "arena_elo" }

// PlayerEvent is a permanent idempotency mark. Existence of the
// (player, event key) pair means the associated one-time grant already
// happened. Rows are created once and never updated or deleted.
type PlayerEvent struct {
	ID        uint      `gorm:"primaryKey"`
	PlayerID  int64     `gorm:"uniqueIndex:idx_player_events_once"`
	EventKey  string    `gorm:"uniqueIndex:idx_player_events_once"`
	CreatedAt time.Time
}

func (PlayerEvent) TableName() string { return "player_events" }
