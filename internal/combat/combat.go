// Package combat resolves effective combat attributes and applies attack
// and defense modifiers during duel turns. The Provider interface is the
// boundary to whatever owns player stat data; a fixed-baseline provider is
// available for degraded mode (no stats backend configured).
package combat

import "math/rand"

// Stats are the effective flat attributes after equipment/race/class.
type Stats struct {
	HPMax   int `json:"hp_max"`
	MPMax   int `json:"mp_max"`
	Attack  int `json:"atk"`
	Defense int `json:"def"`
}

// Mods are fractional combat modifiers (0.1 = 10%), aggregated from race
// and class passives.
type Mods struct {
	DmgPct            float64 `json:"dmg_pct"`
	DefPct            float64 `json:"def_pct"`
	HealPowerPct      float64 `json:"heal_power_pct"`
	CritChance        float64 `json:"crit_chance"`
	CritMult          float64 `json:"crit_mult"`
	DodgeChance       float64 `json:"dodge_chance"`
	LifestealPct      float64 `json:"lifesteal_pct"`
	FirstStrikeChance float64 `json:"first_strike_chance"`
	LowHPRagePct      float64 `json:"low_hp_rage_pct"`
	LowHPThresholdPct float64 `json:"low_hp_threshold_pct"`
}

// DefaultStats is the baseline hero used when no stats backend is wired.
var DefaultStats = Stats{HPMax: 71, MPMax: 20, Attack: 12, Defense: 6}

// DefaultMods returns zeroed modifiers with sane multiplier defaults.
func DefaultMods() Mods {
	return Mods{CritMult: 1.5, LowHPThresholdPct: 0.35}
}

// Sanitize clamps modifier values into their legal ranges.
func (m Mods) Sanitize() Mods {
	if m.CritMult < 1.0 {
		m.CritMult = 1.5
	}
	if m.LowHPThresholdPct < 0.05 {
		m.LowHPThresholdPct = 0.05
	}
	if m.LowHPThresholdPct > 0.5 {
		m.LowHPThresholdPct = 0.5
	}
	m.CritChance = clamp01(m.CritChance)
	m.DodgeChance = clamp01(m.DodgeChance)
	m.FirstStrikeChance = clamp01(m.FirstStrikeChance)
	if m.DefPct < 0 {
		m.DefPct = 0
	}
	if m.DefPct > 0.9 {
		m.DefPct = 0.9
	}
	if m.LifestealPct < 0 {
		m.LifestealPct = 0
	}
	return m
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Provider resolves a player's effective stats and modifiers.
type Provider interface {
	FullStats(playerID int64) (Stats, error)
	CombatMods(playerID int64) (Mods, error)
}

// BaselineProvider serves fixed stats and empty mods. Selected at startup
// when no stats backend is configured, so degraded mode is explicit.
type BaselineProvider struct{}

func (BaselineProvider) FullStats(int64) (Stats, error) { return DefaultStats, nil }
func (BaselineProvider) CombatMods(int64) (Mods, error) { return DefaultMods(), nil }

// BaseRoll draws the attacker's raw damage from attack-2..attack+3.
func BaseRoll(attack int, rng *rand.Rand) int {
	lo := attack - 2
	if lo < 1 {
		lo = 1
	}
	hi := attack + 3
	if hi < lo {
		hi = lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// RollWithMods applies the attacker's offensive modifiers: the flat damage
// bonus, low-HP rage when the attacker is below their threshold, and the
// critical hit roll. Returns the damage and a short note for the duel log.
func RollWithMods(baseDmg int, m Mods, lowHP bool, rng *rand.Rand) (int, string) {
	m = m.Sanitize()
	note := ""
	dmg := int(roundf(float64(baseDmg) * (1.0 + m.DmgPct)))
	if lowHP && m.LowHPRagePct > 0 {
		dmg = int(roundf(float64(dmg) * (1.0 + m.LowHPRagePct)))
		note = appendNote(note, "rage")
	}
	if rng.Float64() < m.CritChance {
		dmg = int(roundf(float64(dmg) * m.CritMult))
		note = appendNote(note, "crit")
	}
	if dmg < 1 {
		dmg = 1
	}
	return dmg, note
}

// Mitigate applies the defender's dodge and percentage reduction. A dodge
// zeroes the hit entirely.
func Mitigate(incoming int, m Mods, rng *rand.Rand) (int, string) {
	m = m.Sanitize()
	if rng.Float64() < m.DodgeChance {
		return 0, "dodge"
	}
	dmg := int(roundf(float64(incoming) * (1.0 - m.DefPct)))
	if dmg < 0 {
		dmg = 0
	}
	return dmg, ""
}

// Lifesteal returns the HP the attacker heals back from dealt damage.
func Lifesteal(finalDmg int, m Mods) (int, string) {
	m = m.Sanitize()
	heal := int(roundf(float64(finalDmg) * m.LifestealPct))
	if heal > 0 {
		return heal, "lifesteal"
	}
	return 0, ""
}

// FirstStrike rolls whether this side opens the duel.
func FirstStrike(m Mods, rng *rand.Rand) bool {
	return rng.Float64() < m.Sanitize().FirstStrikeChance
}

func appendNote(existing, n string) string {
	if existing == "" {
		return n
	}
	return existing + "+" + n
}

func roundf(v float64) float64 {
	if v < 0 {
		return -roundf(-v)
	}
	return float64(int(v + 0.5))
}
