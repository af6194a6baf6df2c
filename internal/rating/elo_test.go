package rating

import "testing"

func TestExpected_EqualRatings(t *testing.T) {
	if e := Expected(1000, 1000); e < 0.499 || e > 0.501 {
		t.Fatalf("expected score for equal ratings should be 0.5, got %f", e)
	}
}

func TestExpected_StrongerSideFavoured(t *testing.T) {
	if e := Expected(1400, 1000); e <= 0.5 {
		t.Fatalf("stronger side should have expected > 0.5, got %f", e)
	}
}

func TestApply_Floor(t *testing.T) {
	if r := Apply(Floor, 0.9, 0.0, 48); r != Floor {
		t.Fatalf("rating dropped below floor: %d", r)
	}
}

func TestResolve_WinnerGainsLoserLoses(t *testing.T) {
	out := Resolve(nil, nil)
	for scale := range KFactors {
		if out.Winner[scale] <= Start {
			t.Fatalf("%s: winner should gain from start, got %d", scale, out.Winner[scale])
		}
		if out.Loser[scale] >= Start {
			t.Fatalf("%s: loser should lose from start, got %d", scale, out.Loser[scale])
		}
	}
}

func TestResolve_ZeroSumNearEqual(t *testing.T) {
	w := map[Scale]int{ScaleAll: 1000}
	l := map[Scale]int{ScaleAll: 1000}
	out := Resolve(w, l)
	gain := out.Winner[ScaleAll] - 1000
	loss := 1000 - out.Loser[ScaleAll]
	if gain != loss {
		t.Fatalf("equal-rating duel should be symmetric: +%d / -%d", gain, loss)
	}
}

func TestNormalizeScale(t *testing.T) {
	if NormalizeScale("week") != ScaleWeek {
		t.Fatal("week should normalize to week")
	}
	if NormalizeScale("bogus") != ScaleAll {
		t.Fatal("unknown scale should fall back to all")
	}
}
