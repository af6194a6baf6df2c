package storage

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/veles-tales/wildlands/internal/combat"
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/logging"
)

// DBStatsProvider resolves effective combat stats from the player row and
// the passive modifiers of their race and class. Unknown players and
// players without archetypes get the baseline hero.
type DBStatsProvider struct {
	repo Repository
}

func NewDBStatsProvider(repo Repository) *DBStatsProvider {
	return &DBStatsProvider{repo: repo}
}

type passive struct {
	Modifier string  `json:"modifier"`
	Value    float64 `json:"value"`
}

func (p *DBStatsProvider) FullStats(playerID int64) (combat.Stats, error) {
	stats := combat.DefaultStats

	player, err := p.repo.GetPlayer(playerID)
	if err == gorm.ErrRecordNotFound {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}

	// Flat attributes scale gently with level.
	if player.Level > 1 {
		stats.HPMax += (player.Level - 1) * 6
		stats.MPMax += (player.Level - 1) * 2
		stats.Attack += (player.Level - 1)
		stats.Defense += (player.Level - 1) / 2
	}

	for _, ps := range p.passivesFor(player) {
		switch ps.Modifier {
		case "hp_max":
			stats.HPMax += int(ps.Value)
		case "mp_max":
			stats.MPMax += int(ps.Value)
		case "atk":
			stats.Attack += int(ps.Value)
		case "def":
			stats.Defense += int(ps.Value)
		}
	}
	return stats, nil
}

func (p *DBStatsProvider) CombatMods(playerID int64) (combat.Mods, error) {
	mods := combat.DefaultMods()

	player, err := p.repo.GetPlayer(playerID)
	if err == gorm.ErrRecordNotFound {
		return mods, nil
	}
	if err != nil {
		return mods, err
	}

	for _, ps := range p.passivesFor(player) {
		switch ps.Modifier {
		case "dmg_pct":
			mods.DmgPct += ps.Value
		case "def_pct":
			mods.DefPct += ps.Value
		case "heal_power_pct":
			mods.HealPowerPct += ps.Value
		case "crit_chance":
			mods.CritChance += ps.Value
		case "crit_mult":
			mods.CritMult = ps.Value
		case "dodge_chance":
			mods.DodgeChance += ps.Value
		case "lifesteal_pct":
			mods.LifestealPct += ps.Value
		case "first_strike_chance":
			mods.FirstStrikeChance += ps.Value
		case "low_hp_rage_pct":
			mods.LowHPRagePct += ps.Value
		case "low_hp_threshold_pct":
			mods.LowHPThresholdPct = ps.Value
		}
	}
	return mods.Sanitize(), nil
}

// passivesFor collects the parsed passive lists from the player's race and
// class rows. Missing archetypes or malformed JSON contribute nothing.
func (p *DBStatsProvider) passivesFor(player *game.Player) []passive {
	var out []passive
	if player.RaceKey != "" {
		if rc, err := p.repo.GetRaceByKey(player.RaceKey); err == nil {
			out = append(out, parsePassives(rc.Passives, "race", rc.Key)...)
		}
	}
	if player.ClassKey != "" {
		if cl, err := p.repo.GetClassByKey(player.ClassKey); err == nil {
			out = append(out, parsePassives(cl.Passives, "class", cl.Key)...)
		}
	}
	return out
}

func parsePassives(raw, kind, key string) []passive {
	if raw == "" {
		return nil
	}
	var out []passive
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logging.Warn("stats: malformed passives, ignoring", err, logging.Fields{kind: key})
		return nil
	}
	return out
}
