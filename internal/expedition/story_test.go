package expedition

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/veles-tales/wildlands/internal/game"
	"github.com/veles-tales/wildlands/internal/loot"
)

type memStore struct {
	states map[int64]*State
}

func newMemStore() *memStore {
	return &memStore{states: map[int64]*State{}}
}

func (m *memStore) Load(_ context.Context, playerID int64) (*State, error) {
	st, ok := m.states[playerID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (m *memStore) Save(_ context.Context, st *State) error {
	cp := *st
	m.states[st.PlayerID] = &cp
	return nil
}

func (m *memStore) Clear(_ context.Context, playerID int64) error {
	delete(m.states, playerID)
	return nil
}

type fakeCatalog struct {
	candidates []loot.Candidate
	mobs       []string
	err        error
}

func (f *fakeCatalog) Candidates(string, game.Resource, int) ([]loot.Candidate, error) {
	return f.candidates, f.err
}

func (f *fakeCatalog) MobNames(string) ([]string, error) {
	return f.mobs, nil
}

type fakePlayers struct{ level int }

func (f *fakePlayers) GetPlayerLevel(int64) (int, error) { return f.level, nil }

type rewardsRecorder struct {
	calls int
	last  []game.LootDrop
}

func (r *rewardsRecorder) Distribute(_ int64, drops []game.LootDrop) {
	r.calls++
	r.last = drops
}

func testEngine(store Store) (*Engine, *rewardsRecorder) {
	cat := &fakeCatalog{
		candidates: []loot.Candidate{
			{ItemID: 1, Code: "herb_sage", Name: "Sage", Rarity: "common", DropChance: 100, MinQty: 2, MaxQty: 4},
			{ItemID: 2, Code: "herb_moly", Name: "Moly", Rarity: "rare", DropChance: 100, MinQty: 1, MaxQty: 2},
		},
		mobs: []string{"Bog wisp"},
	}
	rec := &rewardsRecorder{}
	eng := NewEngine(store, cat, &fakePlayers{level: 5}, rec, rand.New(rand.NewSource(7)))
	return eng, rec
}

func TestStartReplacesPreviousExpedition(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	eng, _ := testEngine(store)
	eng.roll = func(float64) bool { return false }

	if _, err := eng.Start(ctx, 10, "mirewood", "careful", "herb"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	first := store.states[10]

	if _, err := eng.Start(ctx, 10, "mirewood", "risky", "ore"); err != nil {
		t.Fatalf("second start: %v", err)
	}
	second := store.states[10]

	if second.Risk != game.RiskRisky || second.Resource != game.ResourceOre {
		t.Fatalf("second start did not replace state: %+v", second)
	}
	for id := range first.ChoiceMap {
		if _, ok := second.ChoiceMap[id]; ok {
			t.Fatalf("choice token %q survived restart", id)
		}
	}
}

func TestChooseRejectsStaleToken(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	eng, _ := testEngine(store)
	eng.roll = func(float64) bool { return false }

	view, err := eng.Start(ctx, 11, "mirewood", "normal", "herb")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	continueID := optionByKind(t, view.Options, KindContinue).ID

	if _, err := eng.Choose(ctx, 11, continueID); err != nil {
		t.Fatalf("first choice: %v", err)
	}

	// The step-1 token must be dead after the advance.
	if _, err := eng.Choose(ctx, 11, continueID); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("stale token: got %v, want ErrInvalidChoice", err)
	}
}

func TestStepsAdvanceAndCapAtThree(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	eng, _ := testEngine(store)
	eng.roll = func(float64) bool { return false }

	view, err := eng.Start(ctx, 12, "mirewood", "careful", "herb")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Step != 1 {
		t.Fatalf("start step = %d, want 1", view.Step)
	}

	view, err = eng.Choose(ctx, 12, optionByKind(t, view.Options, KindContinue).ID)
	if err != nil {
		t.Fatalf("step 2: %v", err)
	}
	if view.Step != 2 {
		t.Fatalf("step = %d, want 2", view.Step)
	}

	view, err = eng.Choose(ctx, 12, optionByKind(t, view.Options, KindContinue).ID)
	if err != nil {
		t.Fatalf("step 3: %v", err)
	}
	if view.Step != 3 {
		t.Fatalf("step = %d, want 3", view.Step)
	}
	if optionByKindOrNil(view.Options, KindContinue) != nil {
		t.Fatal("step 3 still offers continue")
	}
}

func TestFinishClearsStateAndGrantsOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	eng, rec := testEngine(store)
	eng.roll = func(float64) bool { return false }

	view, err := eng.Start(ctx, 13, "mirewood", "normal", "herb")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// The finish option only appears once the run is under way.
	view, err = eng.Choose(ctx, 13, optionByKind(t, view.Options, KindContinue).ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	view, err = eng.Choose(ctx, 13, optionByKind(t, view.Options, KindFinish).ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !view.Finished {
		t.Fatal("view not finished")
	}
	if rec.calls != 1 {
		t.Fatalf("rewards distributed %d times, want 1", rec.calls)
	}
	if _, err := eng.StateView(ctx, 13); !errors.Is(err, ErrNoActive) {
		t.Fatalf("state after finish: got %v, want ErrNoActive", err)
	}
	if _, err := eng.Choose(ctx, 13, "opt_anything"); !errors.Is(err, ErrNoActive) {
		t.Fatalf("choice after finish: got %v, want ErrNoActive", err)
	}
}

func TestFinishedLeftoverStateRepliesOnceThenClears(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	eng, _ := testEngine(store)

	drops := []game.LootDrop{{ItemID: 1, Code: "herb_sage", Name: "Sage", Rarity: "common", Qty: 3}}
	store.states[14] = &State{
		PlayerID: 14,
		AreaKey:  "mirewood",
		Risk:     game.RiskNormal,
		Resource: game.ResourceHerb,
		Step:     3,
		Finished: true,
		Drops:    drops,
	}

	view, err := eng.Choose(ctx, 14, "opt_whatever")
	if err != nil {
		t.Fatalf("grace replay: %v", err)
	}
	if !view.Finished || len(view.Drops) != 1 || view.Drops[0].Qty != 3 {
		t.Fatalf("grace replay view = %+v", view)
	}
	if _, err := eng.Choose(ctx, 14, "opt_whatever"); !errors.Is(err, ErrNoActive) {
		t.Fatalf("second replay: got %v, want ErrNoActive", err)
	}
}

func TestAmbushLossPaysConsolationLoot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	eng, rec := testEngine(store)

	// Force the ambush roll, walk into step 2, then lose the fight.
	eng.roll = func(float64) bool { return true }
	view, err := eng.Start(ctx, 15, "mirewood", "risky", "herb")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	view, err = eng.Choose(ctx, 15, optionByKind(t, view.Options, KindContinue).ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if view.MobName == "" {
		t.Fatal("ambush without a mob")
	}

	eng.roll = func(float64) bool { return false }
	fight := optionByKind(t, view.Options, KindFight)
	view, err = eng.Choose(ctx, 15, fight.ID)
	if err != nil {
		t.Fatalf("fight: %v", err)
	}
	if !view.Finished {
		t.Fatal("loss did not finish the expedition")
	}
	if view.CombatResult != "lose" {
		t.Fatalf("combat result = %q, want lose", view.CombatResult)
	}
	if rec.calls != 1 {
		t.Fatalf("rewards distributed %d times, want 1", rec.calls)
	}
	for _, d := range view.Drops {
		if d.Qty < 1 {
			t.Fatalf("consolation qty %d below one", d.Qty)
		}
	}
}

func TestCarefulHerbRunKeepsDistinctCap(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	eng, _ := testEngine(store)
	eng.roll = func(float64) bool { return false }

	view, err := eng.Start(ctx, 16, "mirewood", "careful", "herb")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for !view.Finished {
		opt := optionByKindOrNil(view.Options, KindFinish)
		if opt == nil {
			opt = optionByKindOrNil(view.Options, KindContinue)
		}
		if opt == nil {
			t.Fatalf("no usable option at step %d", view.Step)
		}
		view, err = eng.Choose(ctx, 16, opt.ID)
		if err != nil {
			t.Fatalf("choose: %v", err)
		}
	}
	// Careful runs roll at the low tier which keeps at most one line.
	if len(view.Drops) > 1 {
		t.Fatalf("careful run dropped %d distinct items, want <= 1", len(view.Drops))
	}
}

func optionByKind(t *testing.T, opts []Option, kind string) *Option {
	t.Helper()
	o := optionByKindOrNil(opts, kind)
	if o == nil {
		t.Fatalf("no option of kind %q in %+v", kind, opts)
	}
	return o
}

func optionByKindOrNil(opts []Option, kind string) *Option {
	for i := range opts {
		if opts[i].Kind == kind {
			return &opts[i]
		}
	}
	return nil
}
