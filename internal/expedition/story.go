// Package expedition implements the multi-step gathering expedition state
// machine: a per-player narrative with probabilistic ambushes, fight or
// flee choices and a terminal loot roll. State lives in a TTL-bounded
// key-value store; absence of state means no expedition is in progress.
package expedition

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/logging"
	"github.com/veles-tales/wildlands/internal/loot"
)

var (
	ErrNoActive      = errors.New("no active expedition")
	ErrInvalidChoice = errors.New("invalid or stale choice")
)

// State is the stored per-player expedition snapshot. The choice map is
// regenerated on every step so stale tokens from earlier steps can never
// resolve to an action.
type State struct {
	PlayerID  int64             `json:"player_id"`
	AreaKey   string            `json:"area_key"`
	Risk      game.RiskMode     `json:"risk"`
	Resource  game.Resource     `json:"resource"`
	Step      int               `json:"step"`
	Ambush    bool              `json:"ambush"`
	MobName   string            `json:"mob_name,omitempty"`
	ChoiceMap map[string]string `json:"choice_map"`
	Finished  bool              `json:"finished"`
	Drops     []game.LootDrop   `json:"drops,omitempty"`
	CreatedAt int64             `json:"created_at"`
}

// Store persists expedition state. Load returns (nil, nil) when no state
// exists; implementations discard corrupted entries the same way.
type Store interface {
	Load(ctx context.Context, playerID int64) (*State, error)
	Save(ctx context.Context, st *State) error
	Clear(ctx context.Context, playerID int64) error
}

// Catalog provides the read-only content the engine rolls against.
type Catalog interface {
	Candidates(areaKey string, resource game.Resource, level int) ([]loot.Candidate, error)
	MobNames(areaKey string) ([]string, error)
}

// Players resolves the level used to filter drop candidates.
type Players interface {
	GetPlayerLevel(playerID int64) (int, error)
}

// Rewards credits a loot bag to persistent holdings. Distribution is
// best-effort: failures are logged by the implementation and never
// propagate into the state transition.
type Rewards interface {
	Distribute(playerID int64, drops []game.LootDrop)
}

// Option is one selectable choice presented to the client. The ID is an
// opaque one-step token.
type Option struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// StepView is the snapshot returned after every operation.
type StepView struct {
	AreaKey      string          `json:"area_key"`
	Risk         game.RiskMode   `json:"risk"`
	Step         int             `json:"step"`
	Text         string          `json:"text"`
	Options      []Option        `json:"options"`
	MobName      string          `json:"mob_name,omitempty"`
	CombatResult string          `json:"combat_result,omitempty"`
	Finished     bool            `json:"finished"`
	Drops        []game.LootDrop `json:"drops,omitempty"`
}

// Engine drives expedition state transitions. The RNG is guarded by a
// mutex because handlers run concurrently; per-player serialization is a
// client-side assumption (see the duel turn lock for the stricter model).
type Engine struct {
	store   Store
	catalog Catalog
	players Players
	rewards Rewards
	roller  *loot.Roller

	rngMu sync.Mutex
	rng   *rand.Rand

	// roll is the probability trial, overridable in tests.
	roll func(p float64) bool
}

func NewEngine(store Store, cat Catalog, players Players, rewards Rewards, rng *rand.Rand) *Engine {
	e := &Engine{
		store:   store,
		catalog: cat,
		players: players,
		rewards: rewards,
		roller:  loot.NewRoller(rng),
		rng:     rng,
	}
	e.roll = e.rollRNG
	return e
}

func (e *Engine) rollRNG(p float64) bool {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64() < p
}

func (e *Engine) pick(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

func newChoiceToken() string {
	return "opt_" + uuid.NewString()
}

// buildOptions materializes the step's options and the token->action map
// stored alongside the state.
func buildOptions(specs []optionSpec) ([]Option, map[string]string) {
	opts := make([]Option, 0, len(specs))
	mapping := make(map[string]string, len(specs))
	for _, s := range specs {
		id := newChoiceToken()
		opts = append(opts, Option{ID: id, Kind: s.Kind, Label: s.Label})
		mapping[id] = s.Action
	}
	return opts, mapping
}

func (e *Engine) pickMob(areaKey string) string {
	names, err := e.catalog.MobNames(areaKey)
	if err != nil || len(names) == 0 {
		return fallbackMobName
	}
	return names[e.pick(len(names))]
}

// Start begins a new expedition, replacing any previous one for the
// player. The first ambush roll happens here; later steps re-roll on each
// advance.
func (e *Engine) Start(ctx context.Context, playerID int64, areaKey, riskRaw, resourceRaw string) (*StepView, error) {
	resource, err := game.NormalizeResource(resourceRaw)
	if err != nil {
		return nil, err
	}
	risk := game.NormalizeRiskMode(riskRaw)

	if err := e.store.Clear(ctx, playerID); err != nil {
		return nil, err
	}

	params := paramsFor(risk)
	ambush := e.roll(params.AmbushChance)

	mobName := ""
	if ambush {
		mobName = e.pickMob(areaKey)
	}

	opts, mapping := buildOptions(optionsForStep(1, ambush))
	st := &State{
		PlayerID:  playerID,
		AreaKey:   areaKey,
		Risk:      risk,
		Resource:  resource,
		Step:      1,
		Ambush:    ambush,
		MobName:   mobName,
		ChoiceMap: mapping,
	}
	if err := e.store.Save(ctx, st); err != nil {
		return nil, err
	}

	return &StepView{
		AreaKey: areaKey,
		Risk:    risk,
		Step:    1,
		Text:    stepText(areaKey, 1),
		Options: opts,
		MobName: mobName,
	}, nil
}

// StateView returns the current snapshot without advancing it, rebuilding
// the option list from the stored choice map's step.
func (e *Engine) StateView(ctx context.Context, playerID int64) (*StepView, error) {
	st, err := e.store.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoActive
	}
	opts := make([]Option, 0, len(st.ChoiceMap))
	for _, spec := range optionsForStep(st.Step, st.Ambush) {
		for id, action := range st.ChoiceMap {
			if action == spec.Action {
				opts = append(opts, Option{ID: id, Kind: spec.Kind, Label: spec.Label})
				break
			}
		}
	}
	return &StepView{
		AreaKey:  st.AreaKey,
		Risk:     st.Risk,
		Step:     st.Step,
		Text:     stepText(st.AreaKey, st.Step),
		Options:  opts,
		MobName:  st.MobName,
		Finished: st.Finished,
		Drops:    st.Drops,
	}, nil
}

// Choose resolves a submitted choice token and advances the state machine.
// Terminal transitions clear the stored state in the same call; a
// duplicate request that lands on a still-present finished state is served
// the same drops once more and then cleared (grace window for retries).
func (e *Engine) Choose(ctx context.Context, playerID int64, choiceID string) (*StepView, error) {
	st, err := e.store.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoActive
	}

	if st.Finished {
		drops := st.Drops
		if err := e.store.Clear(ctx, playerID); err != nil {
			return nil, err
		}
		return &StepView{
			AreaKey:  st.AreaKey,
			Risk:     st.Risk,
			Step:     st.Step,
			Text:     textAlreadyOver,
			Finished: true,
			Drops:    drops,
		}, nil
	}

	action, ok := st.ChoiceMap[choiceID]
	if !ok {
		return nil, ErrInvalidChoice
	}

	params := paramsFor(st.Risk)

	switch action {
	case actionFinishEarly, actionEscape:
		return e.finishWith(ctx, st, params, escapeMultFactor, textEscaped, "", "")

	case actionFight, actionFightFinish:
		mob := st.MobName
		if mob == "" {
			mob = e.pickMob(st.AreaKey)
		}
		if !e.roll(params.WinChance) {
			// A loss still pays consolation loot at a reduced multiplier.
			return e.finishWith(ctx, st, params, fightLossMultFactor, textFightLost, mob, "lose")
		}
		if action == actionFightFinish {
			return e.finishWith(ctx, st, params, fightFinalMultFactor, textFightWon, mob, "win")
		}
		return e.advance(ctx, st, params, "win")

	case actionContinue:
		return e.advance(ctx, st, params, "")

	case actionFinish:
		return e.finishWith(ctx, st, params, 1.0, textFinished, "", "")
	}

	return nil, ErrInvalidChoice
}

// advance moves to the next step (capped at 3), re-rolls the ambush and
// regenerates the choice map, invalidating all previously issued tokens.
func (e *Engine) advance(ctx context.Context, st *State, params riskParams, combatResult string) (*StepView, error) {
	if st.Step < 3 {
		st.Step++
	}

	ambush := e.roll(params.AmbushChance)
	mobName := ""
	if ambush {
		mobName = e.pickMob(st.AreaKey)
	}

	opts, mapping := buildOptions(optionsForStep(st.Step, ambush))
	st.Ambush = ambush
	st.MobName = mobName
	st.ChoiceMap = mapping
	st.Finished = false
	if err := e.store.Save(ctx, st); err != nil {
		return nil, err
	}

	return &StepView{
		AreaKey:      st.AreaKey,
		Risk:         st.Risk,
		Step:         st.Step,
		Text:         stepText(st.AreaKey, st.Step),
		Options:      opts,
		MobName:      mobName,
		CombatResult: combatResult,
	}, nil
}

// finishWith rolls the final loot bag at the given multiplier factor,
// grants it best-effort and clears the stored state. The transition always
// completes even if the grant partially fails.
func (e *Engine) finishWith(ctx context.Context, st *State, params riskParams, factor float64, text, mobName, combatResult string) (*StepView, error) {
	drops := e.rollLoot(st, params, params.LootMult*factor)

	st.Finished = true
	st.Drops = drops
	st.ChoiceMap = nil
	if err := e.store.Save(ctx, st); err != nil {
		logging.Warn("expedition: failed to persist terminal state", err, logging.Fields{constants.LogFieldPlayerID: st.PlayerID})
	}

	e.rewards.Distribute(st.PlayerID, drops)

	if err := e.store.Clear(ctx, st.PlayerID); err != nil {
		// The grant already happened; losing the clear only shortens the
		// grace window, so log and return the terminal view anyway.
		logging.Warn("expedition: failed to clear terminal state", err, logging.Fields{constants.LogFieldPlayerID: st.PlayerID})
	}

	return &StepView{
		AreaKey:      st.AreaKey,
		Risk:         st.Risk,
		Step:         st.Step,
		Text:         text,
		MobName:      mobName,
		CombatResult: combatResult,
		Finished:     true,
		Drops:        drops,
	}, nil
}

// rollLoot draws the bag and scales quantities by the effective
// multiplier, rounding half-up with a floor of one per kept line.
func (e *Engine) rollLoot(st *State, params riskParams, mult float64) []game.LootDrop {
	level, err := e.players.GetPlayerLevel(st.PlayerID)
	if err != nil {
		logging.Warn("expedition: level lookup failed, assuming 1", err, logging.Fields{constants.LogFieldPlayerID: st.PlayerID})
		level = 1
	}
	candidates, err := e.catalog.Candidates(st.AreaKey, st.Resource, level)
	if err != nil {
		logging.Error("expedition: candidate lookup failed", err, logging.Fields{constants.LogFieldAreaKey: st.AreaKey})
		return nil
	}

	e.rngMu.Lock()
	bag := e.roller.Roll(candidates, params.Tier)
	e.rngMu.Unlock()

	out := make([]game.LootDrop, 0, len(bag))
	for _, d := range bag {
		qty := int(float64(d.Qty)*mult + 0.5)
		if qty < 1 {
			qty = 1
		}
		d.Qty = qty
		out = append(out, d)
	}
	return out
}
