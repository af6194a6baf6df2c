package expedition

import (
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/loot"
)

// riskParams couple a player-facing risk mode to the knobs the engine
// rolls against. Careful trips fewer ambushes and wins more fights but
// pays out less; risky is the inverse.
type riskParams struct {
	AmbushChance float64
	WinChance    float64
	LootMult     float64
	Tier         loot.Tier
}

func paramsFor(risk game.RiskMode) riskParams {
	switch risk {
	case game.RiskCareful:
		return riskParams{AmbushChance: 0.15, WinChance: 0.75, LootMult: 0.85, Tier: loot.TierLow}
	case game.RiskRisky:
		return riskParams{AmbushChance: 0.45, WinChance: 0.55, LootMult: 1.25, Tier: loot.TierHigh}
	default:
		return riskParams{AmbushChance: 0.28, WinChance: 0.65, LootMult: 1.00, Tier: loot.TierMedium}
	}
}

// Loot multiplier adjustments applied on top of the tier's base multiplier
// depending on how the expedition ends.
const (
	escapeMultFactor     = 0.65
	fightLossMultFactor  = 0.50
	fightFinalMultFactor = 1.10
)

// Internal action tags resolved through the per-step choice map.
const (
	actionContinue    = "go_next"
	actionEscape      = "escape"
	actionFinishEarly = "finish_early"
	actionFight       = "fight"
	actionFightFinish = "fight_finish"
	actionFinish      = "finish"
)

// Option kinds exposed to the client.
const (
	KindContinue = "continue"
	KindFight    = "fight"
	KindEscape   = "escape"
	KindFinish   = "finish"
)

type optionSpec struct {
	Kind   string
	Label  string
	Action string
}

// optionsForStep mirrors the narrative branching: step 1 offers the path
// forward or an early retreat; ambushes replace that with fight/flee; the
// final step without an ambush only offers the finish.
func optionsForStep(step int, ambush bool) []optionSpec {
	if step == 1 {
		return []optionSpec{
			{KindContinue, "Press on along the trail", actionContinue},
			{KindEscape, "Turn back while it is safe", actionFinishEarly},
		}
	}
	if step == 2 {
		if ambush {
			return []optionSpec{
				{KindFight, "Step out of the shadows and fight", actionFight},
				{KindEscape, "Slip away into the thicket", actionEscape},
			}
		}
		return []optionSpec{
			{KindContinue, "Keep searching, carefully", actionContinue},
			{KindFinish, "Take what you found and head home", actionFinish},
		}
	}
	if ambush {
		return []optionSpec{
			{KindFight, "One last fight for the haul", actionFightFinish},
			{KindEscape, "Retreat and keep your strength", actionFinishEarly},
		}
	}
	return []optionSpec{{KindFinish, "Finish the expedition and return", actionFinish}}
}

func stepText(areaKey string, step int) string {
	switch step {
	case 1:
		return "You set out into " + areaKey + " in search of resources. " +
			"The road seems quiet, but these lands do not welcome strangers."
	case 2:
		return "You find a promising patch and begin to work. " +
			"Suddenly something rustles nearby. You are being watched."
	default:
		return "The expedition is almost over. One last push and the haul is yours. " +
			"Do you dare to linger a moment longer?"
	}
}

const (
	textEscaped     = "You decide not to tempt fate and return with what you managed to gather."
	textFightLost   = "The fight drains you. You fall back, but still carry something away."
	textFightWon    = "You defeat your enemy and claim the haul. The expedition is over."
	textFinished    = "You finish the expedition and return with your trophies."
	textAlreadyOver = "The expedition is already over."
)

const fallbackMobName = "Unknown enemy"
