// Package duel implements the turn-based PvP combat state machine. Duel
// state is a TTL-bounded key-value record keyed by duel ID; each turn is
// serialized by a short-lived distributed lock so concurrent submissions
// from both clients cannot interleave.
package duel

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/veles-tales/wildlands/internal/combat"
	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/logging"
)

var (
	ErrBusy           = errors.New("turn already in progress")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNotParticipant = errors.New("not a participant of this duel")
	ErrFinished       = errors.New("duel already finished")
	ErrStateMissing   = errors.New("duel state missing")
)

const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

// State is the stored duel snapshot. HP bounds are fixed at creation from
// the stats provider; the record transitions one way from active to
// finished and is never reopened.
type State struct {
	DuelID     uint   `json:"duel_id"`
	PlayerA    int64  `json:"player_a"`
	PlayerB    int64  `json:"player_b"`
	HPA        int    `json:"hp_a"`
	HPB        int    `json:"hp_b"`
	HPMaxA     int    `json:"hp_max_a"`
	HPMaxB     int    `json:"hp_max_b"`
	ActiveTurn int64  `json:"active_turn"`
	Round      int    `json:"round"`
	Status     string `json:"status"`
	LastAction string `json:"last_action,omitempty"`
	Winner     int64  `json:"winner,omitempty"`
	Loser      int64  `json:"loser,omitempty"`
}

// Store persists duel state. Load returns (nil, nil) when the record has
// expired or never existed.
type Store interface {
	Load(ctx context.Context, duelID uint) (*State, error)
	Save(ctx context.Context, st *State) error
}

// Lock serializes turn resolution per duel. Acquire reports false when
// another turn holds the lock; the TTL bounds how long a crashed holder
// can block the duel.
type Lock interface {
	Acquire(ctx context.Context, duelID uint) (bool, error)
	Release(ctx context.Context, duelID uint)
}

// Results records the outcome in durable storage: the duel row flips to
// finished and ratings move. Both run outside the turn lock.
type Results interface {
	MarkDuelFinished(duelID uint, winner, loser int64) error
	RecordDuelResult(winner, loser int64) error
}

// TurnView is the snapshot returned after every duel operation, oriented
// to the requesting player.
type TurnView struct {
	DuelID     uint   `json:"duel_id"`
	You        int64  `json:"you"`
	Opponent   int64  `json:"opponent"`
	YourHP     int    `json:"your_hp"`
	YourHPMax  int    `json:"your_hp_max"`
	EnemyHP    int    `json:"enemy_hp"`
	EnemyHPMax int    `json:"enemy_hp_max"`
	YourTurn   bool   `json:"your_turn"`
	Round      int    `json:"round"`
	Status     string `json:"status"`
	LastAction string `json:"last_action,omitempty"`
	Winner     int64  `json:"winner,omitempty"`
}

// Engine resolves duel turns against the stored state.
type Engine struct {
	store   Store
	lock    Lock
	stats   combat.Provider
	results Results

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEngine(store Store, lock Lock, stats combat.Provider, results Results, rng *rand.Rand) *Engine {
	return &Engine{store: store, lock: lock, stats: stats, results: results, rng: rng}
}

// NewState builds the initial snapshot for a freshly matched pair. The
// queue-waiting player (player A) opens unless the challenger alone
// lands a first-strike roll.
func (e *Engine) NewState(duelID uint, playerA, playerB int64) *State {
	hpA := e.statsFor(playerA).HPMax
	hpB := e.statsFor(playerB).HPMax

	e.rngMu.Lock()
	strikeA := combat.FirstStrike(e.modsFor(playerA), e.rng)
	strikeB := combat.FirstStrike(e.modsFor(playerB), e.rng)
	e.rngMu.Unlock()
	opener := playerA
	if strikeB && !strikeA {
		opener = playerB
	}

	return &State{
		DuelID:     duelID,
		PlayerA:    playerA,
		PlayerB:    playerB,
		HPA:        hpA,
		HPB:        hpB,
		HPMaxA:     hpA,
		HPMaxB:     hpB,
		ActiveTurn: opener,
		Round:      1,
		Status:     StatusActive,
	}
}

// Create builds and persists the initial snapshot for a matched pair.
func (e *Engine) Create(ctx context.Context, duelID uint, playerA, playerB int64) (*State, error) {
	st := e.NewState(duelID, playerA, playerB)
	if err := e.store.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Attack resolves one attack turn for the player.
func (e *Engine) Attack(ctx context.Context, duelID uint, playerID int64) (*TurnView, error) {
	return e.turn(ctx, duelID, playerID, e.resolveAttack)
}

// Heal restores a chunk of the player's HP and passes the turn.
func (e *Engine) Heal(ctx context.Context, duelID uint, playerID int64) (*TurnView, error) {
	return e.turn(ctx, duelID, playerID, e.resolveHeal)
}

// Surrender concedes the duel immediately, regardless of whose turn it is.
func (e *Engine) Surrender(ctx context.Context, duelID uint, playerID int64) (*TurnView, error) {
	ok, err := e.lock.Acquire(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	defer e.lock.Release(ctx, duelID)

	st, err := e.loadActive(ctx, duelID, playerID)
	if err != nil {
		return nil, err
	}

	winner := st.PlayerA
	if playerID == st.PlayerA {
		winner = st.PlayerB
	}
	st.LastAction = "surrender"
	e.finish(st, winner, playerID)
	if err := e.store.Save(ctx, st); err != nil {
		return nil, err
	}
	e.recordOutcome(st)
	return viewFor(st, playerID), nil
}

// StateFor returns the duel snapshot for a participant without mutating it.
func (e *Engine) StateFor(ctx context.Context, duelID uint, playerID int64) (*TurnView, error) {
	st, err := e.store.Load(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStateMissing
	}
	if playerID != st.PlayerA && playerID != st.PlayerB {
		return nil, ErrNotParticipant
	}
	return viewFor(st, playerID), nil
}

type turnResolver func(st *State, playerID int64)

func (e *Engine) turn(ctx context.Context, duelID uint, playerID int64, resolve turnResolver) (*TurnView, error) {
	ok, err := e.lock.Acquire(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	defer e.lock.Release(ctx, duelID)

	st, err := e.loadActive(ctx, duelID, playerID)
	if err != nil {
		return nil, err
	}
	if st.ActiveTurn != playerID {
		return nil, ErrNotYourTurn
	}

	resolve(st, playerID)

	if st.Status == StatusActive {
		st.ActiveTurn = opponentOf(st, playerID)
		st.Round++
	}
	if err := e.store.Save(ctx, st); err != nil {
		return nil, err
	}
	if st.Status == StatusFinished {
		e.recordOutcome(st)
	}
	return viewFor(st, playerID), nil
}

func (e *Engine) loadActive(ctx context.Context, duelID uint, playerID int64) (*State, error) {
	st, err := e.store.Load(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStateMissing
	}
	if playerID != st.PlayerA && playerID != st.PlayerB {
		return nil, ErrNotParticipant
	}
	if st.Status != StatusActive {
		return nil, ErrFinished
	}
	return st, nil
}

// statsFor and modsFor fall back to the baseline hero when the stats
// backend errors, so a turn never fails on a lookup.
func (e *Engine) statsFor(playerID int64) combat.Stats {
	st, err := e.stats.FullStats(playerID)
	if err != nil {
		logging.Warn("duel: stats lookup failed, using baseline", err, logging.Fields{constants.LogFieldPlayerID: playerID})
		return combat.DefaultStats
	}
	return st
}

func (e *Engine) modsFor(playerID int64) combat.Mods {
	m, err := e.stats.CombatMods(playerID)
	if err != nil {
		logging.Warn("duel: mods lookup failed, using defaults", err, logging.Fields{constants.LogFieldPlayerID: playerID})
		return combat.DefaultMods()
	}
	return m.Sanitize()
}

func (e *Engine) resolveAttack(st *State, playerID int64) {
	opponent := opponentOf(st, playerID)
	atkStats := e.statsFor(playerID)
	atkMods := e.modsFor(playerID)
	defStats := e.statsFor(opponent)
	defMods := e.modsFor(opponent)

	hp, hpMax := hpOf(st, playerID)
	enemyHP, _ := hpOf(st, opponent)

	e.rngMu.Lock()
	base := combat.BaseRoll(atkStats.Attack, e.rng)
	lowHP := hpMax > 0 && float64(hp) <= float64(hpMax)*atkMods.LowHPThresholdPct
	dmg, note := combat.RollWithMods(base, atkMods, lowHP, e.rng)
	dmg, defNote := combat.Mitigate(dmg, defMods, e.rng)
	e.rngMu.Unlock()

	if dmg > 0 {
		// Flat reduction from raw defense, never below one on a landed hit.
		dmg -= defStats.Defense / 3
		if dmg < 1 {
			dmg = 1
		}
	}

	enemyHP -= dmg
	if enemyHP < 0 {
		enemyHP = 0
	}
	setHP(st, opponent, enemyHP)

	if dmg > 0 {
		if healed, stealNote := combat.Lifesteal(dmg, atkMods); healed > 0 {
			hp += healed
			if hp > hpMax {
				hp = hpMax
			}
			setHP(st, playerID, hp)
			note = joinNotes(note, stealNote)
		}
	}

	st.LastAction = attackNote(dmg, joinNotes(note, defNote))
	if enemyHP <= 0 {
		e.finish(st, playerID, opponent)
	}
}

func (e *Engine) resolveHeal(st *State, playerID int64) {
	hp, hpMax := hpOf(st, playerID)
	mods := e.modsFor(playerID)

	amount := hpMax * 30 / 100
	if amount < 10 {
		amount = 10
	}
	e.rngMu.Lock()
	amount += e.rng.Intn(7) - 3
	e.rngMu.Unlock()
	if mods.HealPowerPct != 0 {
		amount = int(float64(amount) * (1 + mods.HealPowerPct))
	}
	if amount < 1 {
		amount = 1
	}

	hp += amount
	if hp > hpMax {
		hp = hpMax
	}
	setHP(st, playerID, hp)
	st.LastAction = "heal"
}

func (e *Engine) finish(st *State, winner, loser int64) {
	st.Status = StatusFinished
	st.Winner = winner
	st.Loser = loser
	st.ActiveTurn = 0
}

// recordOutcome persists the result best-effort. The in-flight duel state
// is already final; a failed write here loses bookkeeping, not the duel.
func (e *Engine) recordOutcome(st *State) {
	if err := e.results.MarkDuelFinished(st.DuelID, st.Winner, st.Loser); err != nil {
		logging.Error("duel: failed to mark duel finished", err, logging.Fields{constants.LogFieldDuelID: st.DuelID})
	}
	if err := e.results.RecordDuelResult(st.Winner, st.Loser); err != nil {
		logging.Error("duel: failed to record rating result", err, logging.Fields{constants.LogFieldDuelID: st.DuelID})
	}
}

func opponentOf(st *State, playerID int64) int64 {
	if playerID == st.PlayerA {
		return st.PlayerB
	}
	return st.PlayerA
}

func hpOf(st *State, playerID int64) (hp, hpMax int) {
	if playerID == st.PlayerA {
		return st.HPA, st.HPMaxA
	}
	return st.HPB, st.HPMaxB
}

func setHP(st *State, playerID int64, hp int) {
	if playerID == st.PlayerA {
		st.HPA = hp
	} else {
		st.HPB = hp
	}
}

func attackNote(dmg int, note string) string {
	if note != "" {
		return "attack:" + note
	}
	if dmg == 0 {
		return "attack:dodge"
	}
	return "attack"
}

func joinNotes(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "+" + b
}

func viewFor(st *State, playerID int64) *TurnView {
	yourHP, yourMax := hpOf(st, playerID)
	op := opponentOf(st, playerID)
	enemyHP, enemyMax := hpOf(st, op)
	return &TurnView{
		DuelID:     st.DuelID,
		You:        playerID,
		Opponent:   op,
		YourHP:     yourHP,
		YourHPMax:  yourMax,
		EnemyHP:    enemyHP,
		EnemyHPMax: enemyMax,
		YourTurn:   st.Status == StatusActive && st.ActiveTurn == playerID,
		Round:      st.Round,
		Status:     st.Status,
		LastAction: st.LastAction,
		Winner:     st.Winner,
	}
}
