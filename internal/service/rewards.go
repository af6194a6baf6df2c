// Package service holds the gameplay flows that sit between the HTTP
// handlers and storage: reward crediting and the daily login grant.
package service

import (
	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/logging"
)

// Inventory is the narrow slice of the repository reward distribution
// needs.
type Inventory interface {
	GiveItem(playerID int64, drop game.LootDrop) error
	AddXP(playerID int64, amount int64) error
}

// Distributor credits loot bags to persistent holdings. Crediting is
// best-effort per line: a failed item is logged and skipped so one bad row
// cannot void the rest of the bag.
type Distributor struct {
	inv Inventory
}

func NewDistributor(inv Inventory) *Distributor {
	return &Distributor{inv: inv}
}

// xpPerItem is the experience granted per credited unit.
const xpPerItem = 2

func (d *Distributor) Distribute(playerID int64, drops []game.LootDrop) {
	var totalQty int64
	for _, drop := range drops {
		if err := d.inv.GiveItem(playerID, drop); err != nil {
			logging.Warn("rewards: failed to credit item", err, logging.Fields{
				constants.LogFieldPlayerID: playerID,
				constants.LogFieldItemCode: drop.Code,
				"qty":                      drop.Qty,
			})
			continue
		}
		totalQty += int64(drop.Qty)
	}
	if totalQty == 0 {
		return
	}
	if err := d.inv.AddXP(playerID, totalQty*xpPerItem); err != nil {
		logging.Warn("rewards: failed to credit xp", err, logging.Fields{constants.LogFieldPlayerID: playerID})
	}
}
