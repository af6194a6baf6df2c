// Package storage owns the durable (sqlite via gorm) and volatile (redis)
// state backends. Durable rows are the source of truth for identity,
// holdings, queue and ratings; redis holds the TTL-bounded expedition and
// duel snapshots plus the duel turn lock.
package storage

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/veles-tales/wildlands/internal/config"
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/logging"
)

func OpenAndMigrate(dataSourceName string, content *config.LoadedContent) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&game.Player{},
		&game.Item{},
		&game.DropEntry{},
		&game.MobEntry{},
		&game.Race{},
		&game.Class{},
		&game.InventoryItem{},
		&game.Duel{},
		&game.QueueEntry{},
		&game.EloRating{},
		&game.PlayerEvent{},
	)
	if err != nil {
		return nil, err
	}

	if content != nil {
		seedContent(db, content)
	}
	return db, nil
}

// seedContent refreshes the content tables from the config file. Content
// rows are wiped and re-created so the file stays the single source of
// truth; player-owned tables are never touched here.
func seedContent(db *gorm.DB, content *config.LoadedContent) {
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"area_drops", "area_mobs"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}

		idByCode := make(map[string]uint, len(content.Items))
		for _, it := range content.Items {
			var existing game.Item
			err := tx.Where("code = ?", it.Code).First(&existing).Error
			switch {
			case err == gorm.ErrRecordNotFound:
				row := it
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				idByCode[it.Code] = row.ID
			case err != nil:
				return err
			default:
				existing.Name = it.Name
				existing.Rarity = it.Rarity
				existing.Category = it.Category
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				idByCode[it.Code] = existing.ID
			}
		}

		for _, d := range content.Drops {
			row := game.DropEntry{
				AreaKey:    d.AreaKey,
				Resource:   string(d.Resource),
				ItemID:     idByCode[d.ItemCode],
				DropChance: d.DropChance,
				MinQty:     d.MinQty,
				MaxQty:     d.MaxQty,
				MinLevel:   d.MinLevel,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, m := range content.Mobs {
			row := game.MobEntry{AreaKey: m.AreaKey, Name: m.Name}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, rc := range content.Races {
			if err := upsertByKey(tx, &game.Race{}, rc.Key, func() error {
				row := rc
				return tx.Create(&row).Error
			}, map[string]interface{}{"name": rc.Name, "passives": rc.Passives}); err != nil {
				return err
			}
		}
		for _, cl := range content.Classes {
			if err := upsertByKey(tx, &game.Class{}, cl.Key, func() error {
				row := cl
				return tx.Create(&row).Error
			}, map[string]interface{}{"name": cl.Name, "passives": cl.Passives}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logging.Error("failed to seed content tables", err, nil)
	}
}

func upsertByKey(tx *gorm.DB, model interface{}, key string, create func() error, updates map[string]interface{}) error {
	res := tx.Model(model).Where("key = ?", key).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return create()
}
