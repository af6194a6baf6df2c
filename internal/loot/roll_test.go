package loot

import (
	"math/rand"
	"testing"
)

func testCandidates(n int) []Candidate {
	rarities := []string{"common", "uncommon", "rare", "epic", "legendary", "mythic"}
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Candidate{
			ItemID:     uint(i + 1),
			Code:       "res_" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Name:       "Resource",
			Rarity:     rarities[i%len(rarities)],
			DropChance: 100,
			MinQty:     1,
			MaxQty:     4,
		})
	}
	return out
}

func TestRoll_RespectsDistinctCap(t *testing.T) {
	caps := map[Tier]int{TierLow: 1, TierMedium: 2, TierHigh: 3, TierExtreme: 5}
	for tier, maxN := range caps {
		r := NewRoller(rand.New(rand.NewSource(42)))
		for i := 0; i < 200; i++ {
			bag := r.Roll(testCandidates(12), tier)
			if len(bag) > maxN {
				t.Fatalf("tier %s: bag has %d distinct items, cap is %d", tier, len(bag), maxN)
			}
		}
	}
}

func TestRoll_NoDuplicateCodes(t *testing.T) {
	r := NewRoller(rand.New(rand.NewSource(7)))
	for i := 0; i < 300; i++ {
		bag := r.Roll(testCandidates(15), TierExtreme)
		seen := map[string]bool{}
		for _, d := range bag {
			if seen[d.Code] {
				t.Fatalf("duplicate item code %q in one bag", d.Code)
			}
			seen[d.Code] = true
		}
	}
}

func TestRoll_QuantitiesStayPositive(t *testing.T) {
	r := NewRoller(rand.New(rand.NewSource(99)))
	for i := 0; i < 500; i++ {
		for _, tier := range []Tier{TierLow, TierMedium, TierHigh, TierExtreme} {
			for _, d := range r.Roll(testCandidates(10), tier) {
				if d.Qty < 1 {
					t.Fatalf("tier %s: drop %s has qty %d", tier, d.Code, d.Qty)
				}
			}
		}
	}
}

func TestRoll_EmptyBagIsValid(t *testing.T) {
	r := NewRoller(rand.New(rand.NewSource(1)))
	cands := []Candidate{{ItemID: 1, Code: "res_x", Name: "X", DropChance: 1, MinQty: 1, MaxQty: 1}}
	empty := false
	for i := 0; i < 50 && !empty; i++ {
		if len(r.Roll(cands, TierLow)) == 0 {
			empty = true
		}
	}
	if !empty {
		t.Fatal("expected at least one empty bag from a 1% candidate")
	}
}

func TestRoll_ZeroChanceNeverDrops(t *testing.T) {
	r := NewRoller(rand.New(rand.NewSource(3)))
	cands := []Candidate{{ItemID: 1, Code: "res_x", Name: "X", DropChance: 0, MinQty: 1, MaxQty: 1}}
	for i := 0; i < 100; i++ {
		if len(r.Roll(cands, TierHigh)) != 0 {
			t.Fatal("zero-chance candidate dropped")
		}
	}
}

func TestNormalizeTier(t *testing.T) {
	cases := map[string]Tier{
		"low":     TierLow,
		"careful": TierLow,
		"medium":  TierMedium,
		"":        TierMedium,
		"bogus":   TierMedium,
		"risky":   TierHigh,
		"HIGH":    TierHigh,
		"extreme": TierExtreme,
	}
	for in, want := range cases {
		if got := NormalizeTier(in); got != want {
			t.Fatalf("NormalizeTier(%q) = %s, want %s", in, got, want)
		}
	}
}
