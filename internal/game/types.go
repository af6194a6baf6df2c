package game

import (
	"errors"
	"strings"
)

// RiskMode is the player-facing difficulty choice for an expedition.
type RiskMode string

const (
	RiskCareful RiskMode = "careful"
	RiskNormal  RiskMode = "normal"
	RiskRisky   RiskMode = "risky"
)

// NormalizeRiskMode maps arbitrary client input to a RiskMode. Unknown
// values fall back to normal rather than erroring; this leniency is part of
// the API contract.
func NormalizeRiskMode(v string) RiskMode {
	switch RiskMode(strings.ToLower(strings.TrimSpace(v))) {
	case RiskCareful:
		return RiskCareful
	case RiskRisky:
		return RiskRisky
	default:
		return RiskNormal
	}
}

// Resource is the normalized gathering bucket. Client input may use
// profession names as aliases (herbalist, miner, stonemason).
type Resource string

const (
	ResourceHerb  Resource = "herb"
	ResourceOre   Resource = "ore"
	ResourceStone Resource = "stone"
)

var ErrUnknownResource = errors.New("unknown resource kind")

func NormalizeResource(v string) (Resource, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "herb", "herbalist":
		return ResourceHerb, nil
	case "ore", "miner":
		return ResourceOre, nil
	case "stone", "stonemason", "ks":
		return ResourceStone, nil
	}
	return "", ErrUnknownResource
}

// LootDrop is one line of a loot bag: a distinct item code with quantity.
// It is transient; granting folds it into player_inventory rows.
type LootDrop struct {
	ItemID uint   `json:"item_id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Rarity string `json:"rarity,omitempty"`
	Qty    int    `json:"qty"`
}
