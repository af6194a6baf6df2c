package combat

import (
	"math/rand"
	"testing"
)

func TestBaseRoll_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		d := BaseRoll(12, rng)
		if d < 10 || d > 15 {
			t.Fatalf("base roll %d outside [10,15]", d)
		}
	}
	for i := 0; i < 100; i++ {
		if d := BaseRoll(1, rng); d < 1 {
			t.Fatalf("base roll %d below 1 for weak attacker", d)
		}
	}
}

func TestRollWithMods_NeverBelowOne(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	m := DefaultMods()
	m.DmgPct = -0.99
	if dmg, _ := RollWithMods(1, m, false, rng); dmg < 1 {
		t.Fatalf("damage %d below 1", dmg)
	}
}

func TestRollWithMods_RageAppliesOnlyWhenLow(t *testing.T) {
	m := DefaultMods()
	m.LowHPRagePct = 1.0 // double damage when enraged

	rng := rand.New(rand.NewSource(3))
	calm, _ := RollWithMods(10, m, false, rng)
	rng = rand.New(rand.NewSource(3))
	raged, note := RollWithMods(10, m, true, rng)
	if raged != calm*2 {
		t.Fatalf("rage should double damage: calm=%d raged=%d", calm, raged)
	}
	if note != "rage" {
		t.Fatalf("expected rage note, got %q", note)
	}
}

func TestMitigate_DodgeZeroes(t *testing.T) {
	m := DefaultMods()
	m.DodgeChance = 1.0
	dmg, note := Mitigate(50, m, rand.New(rand.NewSource(4)))
	if dmg != 0 || note != "dodge" {
		t.Fatalf("full dodge should zero damage, got %d (%q)", dmg, note)
	}
}

func TestMitigate_DefPctCapped(t *testing.T) {
	m := DefaultMods()
	m.DefPct = 5.0 // sanitized to 0.9
	dmg, _ := Mitigate(100, m, rand.New(rand.NewSource(5)))
	if dmg != 10 {
		t.Fatalf("def reduction should cap at 90%%, got %d", dmg)
	}
}

func TestLifesteal(t *testing.T) {
	m := DefaultMods()
	m.LifestealPct = 0.5
	heal, note := Lifesteal(20, m)
	if heal != 10 || note != "lifesteal" {
		t.Fatalf("expected heal 10, got %d (%q)", heal, note)
	}
	if heal, _ := Lifesteal(20, DefaultMods()); heal != 0 {
		t.Fatalf("no lifesteal mod should heal 0, got %d", heal)
	}
}

func TestSanitize_Thresholds(t *testing.T) {
	m := Mods{CritMult: 0.2, LowHPThresholdPct: 0.9, DodgeChance: 2.0}.Sanitize()
	if m.CritMult < 1.0 {
		t.Fatal("crit mult should be at least 1.0")
	}
	if m.LowHPThresholdPct > 0.5 {
		t.Fatal("low hp threshold should cap at 0.5")
	}
	if m.DodgeChance > 1.0 {
		t.Fatal("dodge chance should clamp to 1.0")
	}
}
