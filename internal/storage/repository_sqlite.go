package storage

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/rating"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&sqliteRepository{db: tx})
	})
}

func (r *sqliteRepository) UpsertPlayer(playerID int64, name string) (*game.Player, error) {
	var p game.Player
	if err := r.db.Where("player_id = ?", playerID).First(&p).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		p = game.Player{PlayerID: playerID, Name: name, Level: 1}
		if err := r.db.Create(&p).Error; err != nil {
			return nil, err
		}
		return &p, nil
	}
	if name != "" && name != p.Name {
		p.Name = name
		if err := r.db.Save(&p).Error; err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *sqliteRepository) GetPlayer(playerID int64) (*game.Player, error) {
	var p game.Player
	if err := r.db.Where("player_id = ?", playerID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sqliteRepository) GetPlayerLevel(playerID int64) (int, error) {
	p, err := r.GetPlayer(playerID)
	if err == gorm.ErrRecordNotFound {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if p.Level < 1 {
		return 1, nil
	}
	return p.Level, nil
}

func (r *sqliteRepository) UpdatePlayer(p *game.Player) error {
	return r.db.Save(p).Error
}

func (r *sqliteRepository) GiveItem(playerID int64, drop game.LootDrop) error {
	if drop.Qty < 1 {
		return nil
	}
	res := r.db.Model(&game.InventoryItem{}).
		Where("player_id = ? AND item_code = ?", playerID, drop.Code).
		Update("quantity", gorm.Expr("quantity + ?", drop.Qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	row := game.InventoryItem{
		PlayerID: playerID,
		ItemCode: drop.Code,
		Name:     drop.Name,
		Rarity:   drop.Rarity,
		Quantity: drop.Qty,
	}
	return r.db.Create(&row).Error
}

// AdjustCoins applies a delta and clamps the balance at zero. A debit
// larger than the balance zeroes it rather than failing.
func (r *sqliteRepository) AdjustCoins(playerID int64, delta int64) error {
	return r.db.Model(&game.Player{}).
		Where("player_id = ?", playerID).
		Update("coins", gorm.Expr("MAX(0, coins + ?)", delta)).Error
}

func (r *sqliteRepository) AddXP(playerID int64, amount int64) error {
	if amount <= 0 {
		return nil
	}
	return r.db.Model(&game.Player{}).
		Where("player_id = ?", playerID).
		Update("xp", gorm.Expr("xp + ?", amount)).Error
}

func (r *sqliteRepository) AdjustCharms(playerID int64, delta int64) error {
	return r.db.Model(&game.Player{}).
		Where("player_id = ?", playerID).
		Update("charms", gorm.Expr("MAX(0, charms + ?)", delta)).Error
}

func (r *sqliteRepository) DropEntries(areaKey, resource string) ([]game.DropEntry, error) {
	var entries []game.DropEntry
	err := r.db.Preload("Item").
		Where("area_key = ? AND resource = ?", areaKey, resource).
		Find(&entries).Error
	return entries, err
}

func (r *sqliteRepository) MobNames(areaKey string) ([]string, error) {
	var names []string
	err := r.db.Model(&game.MobEntry{}).
		Where("area_key = ?", areaKey).
		Pluck("name", &names).Error
	return names, err
}

func (r *sqliteRepository) GetRaceByKey(key string) (*game.Race, error) {
	var rc game.Race
	if err := r.db.Where("key = ?", key).First(&rc).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *sqliteRepository) GetClassByKey(key string) (*game.Class, error) {
	var cl game.Class
	if err := r.db.Where("key = ?", key).First(&cl).Error; err != nil {
		return nil, err
	}
	return &cl, nil
}

// MarkEventOnce inserts the idempotency mark with conflict-do-nothing
// semantics; the unique index on (player_id, event_key) makes the first
// writer win and every repeat a no-op.
func (r *sqliteRepository) MarkEventOnce(playerID int64, eventKey string) (bool, error) {
	row := game.PlayerEvent{PlayerID: playerID, EventKey: eventKey}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// JoinQueue matches the player against the oldest waiting opponent, or
// parks them in the queue when nobody is waiting. The pop is a single
// DELETE..RETURNING inside the transaction, so two concurrent joiners
// cannot claim the same opponent.
func (r *sqliteRepository) JoinQueue(playerID int64) (*game.Duel, error) {
	var created *game.Duel
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var opponent []int64
		err := tx.Raw(`DELETE FROM arena_queue
			WHERE player_id = (
				SELECT player_id FROM arena_queue
				WHERE player_id != ?
				ORDER BY joined_at ASC
				LIMIT 1
			)
			RETURNING player_id`, playerID).Scan(&opponent).Error
		if err != nil {
			return err
		}

		if len(opponent) == 0 {
			entry := game.QueueEntry{PlayerID: playerID, JoinedAt: time.Now()}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
		}

		// Drop the joiner's own stale entry if present.
		if err := tx.Where("player_id = ?", playerID).Delete(&game.QueueEntry{}).Error; err != nil {
			return err
		}

		d := game.Duel{PlayerA: opponent[0], PlayerB: playerID, Status: game.DuelStatusActive}
		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		created = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *sqliteRepository) LeaveQueue(playerID int64) error {
	return r.db.Where("player_id = ?", playerID).Delete(&game.QueueEntry{}).Error
}

func (r *sqliteRepository) InQueue(playerID int64) (bool, error) {
	var count int64
	err := r.db.Model(&game.QueueEntry{}).Where("player_id = ?", playerID).Count(&count).Error
	return count > 0, err
}

func (r *sqliteRepository) QueueSize() (int64, error) {
	var count int64
	err := r.db.Model(&game.QueueEntry{}).Count(&count).Error
	return count, err
}

func (r *sqliteRepository) ActiveDuelFor(playerID int64) (*game.Duel, error) {
	var d game.Duel
	err := r.db.Where("status = ? AND (player_a = ? OR player_b = ?)",
		game.DuelStatusActive, playerID, playerID).
		Order("created_at DESC").First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *sqliteRepository) ActiveDuelCount() (int64, error) {
	var count int64
	err := r.db.Model(&game.Duel{}).Where("status = ?", game.DuelStatusActive).Count(&count).Error
	return count, err
}

// MarkDuelFinished flips the duel row one way. The status guard makes the
// transition idempotent under retried result recording.
func (r *sqliteRepository) MarkDuelFinished(duelID uint, winner, loser int64) error {
	return r.db.Model(&game.Duel{}).
		Where("id = ? AND status = ?", duelID, game.DuelStatusActive).
		Update("status", game.DuelStatusFinished).Error
}

// RecordDuelResult moves both players' ratings on all four scales in one
// transaction.
func (r *sqliteRepository) RecordDuelResult(winner, loser int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		w, err := eloForTx(tx, winner)
		if err != nil {
			return err
		}
		l, err := eloForTx(tx, loser)
		if err != nil {
			return err
		}

		out := rating.Resolve(scalesOf(w), scalesOf(l))
		applyScales(w, out.Winner)
		applyScales(l, out.Loser)
		w.Wins++
		l.Losses++
		now := time.Now()
		w.UpdatedAt = now
		l.UpdatedAt = now

		if err := tx.Save(w).Error; err != nil {
			return err
		}
		return tx.Save(l).Error
	})
}

func (r *sqliteRepository) EloFor(playerID int64) (*game.EloRating, error) {
	return eloForTx(r.db, playerID)
}

func eloForTx(tx *gorm.DB, playerID int64) (*game.EloRating, error) {
	var e game.EloRating
	if err := tx.Where("player_id = ?", playerID).First(&e).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		e = game.EloRating{
			PlayerID: playerID,
			Day:      rating.Start,
			Week:     rating.Start,
			Month:    rating.Start,
			All:      rating.Start,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&e).Error; err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func scalesOf(e *game.EloRating) map[rating.Scale]int {
	return map[rating.Scale]int{
		rating.ScaleDay:   e.Day,
		rating.ScaleWeek:  e.Week,
		rating.ScaleMonth: e.Month,
		rating.ScaleAll:   e.All,
	}
}

func applyScales(e *game.EloRating, m map[rating.Scale]int) {
	e.Day = m[rating.ScaleDay]
	e.Week = m[rating.ScaleWeek]
	e.Month = m[rating.ScaleMonth]
	e.All = m[rating.ScaleAll]
}

func scaleColumn(s rating.Scale) string {
	switch s {
	case rating.ScaleDay:
		return "elo_day"
	case rating.ScaleWeek:
		return "elo_week"
	case rating.ScaleMonth:
		return "elo_month"
	}
	return "elo_all"
}

func (r *sqliteRepository) Ladder(scale rating.Scale, limit int) ([]game.EloRating, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []game.EloRating
	err := r.db.Model(&game.EloRating{}).
		Order(scaleColumn(scale) + " DESC").
		Order("wins DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ResetScale opens a fresh period ladder. The all-time scale is never
// reset; asking for it is a no-op.
func (r *sqliteRepository) ResetScale(scale rating.Scale) error {
	if scale == rating.ScaleAll {
		return nil
	}
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&game.EloRating{}).
		Update(scaleColumn(scale), rating.Start).Error
}

// RankFor returns the player's 1-based ladder position on the scale.
func (r *sqliteRepository) RankFor(playerID int64, scale rating.Scale) (int64, error) {
	e, err := r.EloFor(playerID)
	if err != nil {
		return 0, err
	}
	col := scaleColumn(scale)
	own := map[rating.Scale]int{
		rating.ScaleDay:   e.Day,
		rating.ScaleWeek:  e.Week,
		rating.ScaleMonth: e.Month,
		rating.ScaleAll:   e.All,
	}[scale]

	var ahead int64
	err = r.db.Model(&game.EloRating{}).
		Where(col+" > ?", own).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return ahead + 1, nil
}
