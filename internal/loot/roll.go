// Package loot implements the weighted loot roll used by gathering
// expeditions. Rolls are pure functions of the candidate list, the risk
// tier and the injected RNG; callers are responsible for sourcing
// candidates from the catalog and for granting the resulting bag.
package loot

import (
	"math/rand"
	"strings"

	"github.com/veles-tales/wildlands/internal/game"
)

// Tier is the internal risk scale an expedition risk mode maps onto.
type Tier string

const (
	TierLow     Tier = "low"
	TierMedium  Tier = "medium"
	TierHigh    Tier = "high"
	TierExtreme Tier = "extreme"
)

// NormalizeTier accepts tier names and a few legacy aliases. Anything
// unrecognized falls back to medium.
func NormalizeTier(v string) Tier {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "low", "safe", "careful":
		return TierLow
	case "high", "risky", "danger":
		return TierHigh
	case "extreme":
		return TierExtreme
	default:
		return TierMedium
	}
}

// Candidate is one droppable item definition, already filtered by area,
// resource and player level. DropChance is a percentage 1..100.
type Candidate struct {
	ItemID     uint
	Code       string
	Name       string
	Rarity     string
	DropChance int
	MinQty     int
	MaxQty     int
}

// complicationChance per tier, percent.
var complicationChance = map[Tier]int{
	TierLow:     5,
	TierMedium:  12,
	TierHigh:    22,
	TierExtreme: 35,
}

// maxDistinct caps how many different items one bag can hold. Extreme rolls
// its cap uniformly in 4..5.
var maxDistinct = map[Tier]int{
	TierLow:    1,
	TierMedium: 2,
	TierHigh:   3,
}

// Roller draws loot bags. The RNG is injected so tests can seed it.
type Roller struct {
	rng *rand.Rand
}

func NewRoller(rng *rand.Rand) *Roller {
	return &Roller{rng: rng}
}

// Roll produces an ordered bag of distinct drops. An empty bag is a valid
// outcome (bad luck), not an error.
func (r *Roller) Roll(candidates []Candidate, tier Tier) []game.LootDrop {
	pool := r.rollCandidates(candidates)
	bag := r.pickDistinct(pool, tier)
	return r.applyComplication(bag, tier)
}

// rollCandidates runs the per-candidate Bernoulli trial and quantity roll.
func (r *Roller) rollCandidates(candidates []Candidate) []game.LootDrop {
	out := make([]game.LootDrop, 0, len(candidates))
	for _, c := range candidates {
		if c.DropChance <= 0 {
			continue
		}
		if r.rng.Intn(100)+1 > c.DropChance {
			continue
		}
		minQty := c.MinQty
		if minQty < 1 {
			minQty = 1
		}
		maxQty := c.MaxQty
		if maxQty < minQty {
			maxQty = minQty
		}
		out = append(out, game.LootDrop{
			ItemID: c.ItemID,
			Code:   c.Code,
			Name:   c.Name,
			Rarity: c.Rarity,
			Qty:    minQty + r.rng.Intn(maxQty-minQty+1),
		})
	}
	return out
}

func (r *Roller) maxDistinctFor(tier Tier) int {
	if tier == TierExtreme {
		return 4 + r.rng.Intn(2)
	}
	if n, ok := maxDistinct[tier]; ok {
		return n
	}
	return maxDistinct[TierMedium]
}

// rarityWeight biases selection toward rarer items, slightly more so at
// higher tiers. Values stay close to 1 so legendaries remain rare.
func rarityWeight(rarity string, tier Tier) float64 {
	base := 1.0
	switch strings.ToLower(strings.TrimSpace(rarity)) {
	case "uncommon":
		base = 1.2
	case "rare":
		base = 1.35
	case "epic":
		base = 1.5
	case "legendary":
		base = 1.65
	case "mythic", "divine":
		base = 1.8
	}
	switch tier {
	case TierLow:
		return base * 0.95
	case TierHigh:
		return base * 1.08
	case TierExtreme:
		return base * 1.15
	}
	return base
}

// pickDistinct trims the eligible pool down to the tier's distinct cap,
// selecting without replacement with rarity-derived weights.
func (r *Roller) pickDistinct(pool []game.LootDrop, tier Tier) []game.LootDrop {
	if len(pool) == 0 {
		return nil
	}
	maxN := r.maxDistinctFor(tier)
	if len(pool) <= maxN {
		r.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		return pool
	}

	remaining := make([]game.LootDrop, len(pool))
	copy(remaining, pool)
	weights := make([]float64, len(remaining))
	for i := range remaining {
		weights[i] = rarityWeight(remaining[i].Rarity, tier)
	}

	chosen := make([]game.LootDrop, 0, maxN)
	for len(chosen) < maxN && len(remaining) > 0 {
		idx := r.weightedIndex(weights)
		chosen = append(chosen, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return chosen
}

func (r *Roller) weightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := r.rng.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// applyComplication runs the second Bernoulli trial that can prune the bag.
// Low/medium tiers lose the last item or halve one line's quantity; high
// and extreme tiers can lose half the bag, collapse to a single item, or
// shed 1-2 units from every line (never below 1).
func (r *Roller) applyComplication(bag []game.LootDrop, tier Tier) []game.LootDrop {
	if len(bag) == 0 {
		return bag
	}
	chance, ok := complicationChance[tier]
	if !ok {
		chance = complicationChance[TierMedium]
	}
	if r.rng.Intn(100)+1 > chance {
		return bag
	}

	if tier == TierLow || tier == TierMedium {
		if len(bag) >= 2 && r.rng.Intn(2) == 0 {
			return bag[:len(bag)-1]
		}
		i := r.rng.Intn(len(bag))
		if bag[i].Qty > 1 {
			bag[i].Qty /= 2
			if bag[i].Qty < 1 {
				bag[i].Qty = 1
			}
		}
		return bag
	}

	switch r.rng.Intn(3) {
	case 0: // cut half
		keep := (len(bag) + 1) / 2
		if keep < 1 {
			keep = 1
		}
		return bag[:keep]
	case 1: // collapse to one
		return bag[:1]
	default: // reduce every quantity by 1-2
		for i := range bag {
			if bag[i].Qty > 1 {
				cut := 1 + r.rng.Intn(2)
				if cut > bag[i].Qty-1 {
					cut = bag[i].Qty - 1
				}
				bag[i].Qty -= cut
			}
		}
		return bag
	}
}
