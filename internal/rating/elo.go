// Package rating holds the arena ELO math. Persistence lives in storage;
// this package is pure so duel outcomes and season resets are easy to test.
package rating

import "math"

// Scale is one of the four rating periods kept per player.
type Scale string

const (
	ScaleDay   Scale = "day"
	ScaleWeek  Scale = "week"
	ScaleMonth Scale = "month"
	ScaleAll   Scale = "all"
)

const (
	Start = 1000
	Floor = 600
)

// KFactors: short periods move faster so daily ladders stay lively.
var KFactors = map[Scale]int{
	ScaleDay:   48,
	ScaleWeek:  32,
	ScaleMonth: 24,
	ScaleAll:   16,
}

// NormalizeScale falls back to the all-time scale for unknown input.
func NormalizeScale(v string) Scale {
	switch Scale(v) {
	case ScaleDay, ScaleWeek, ScaleMonth, ScaleAll:
		return Scale(v)
	}
	return ScaleAll
}

// Expected returns the classic ELO expected score of a against b.
func Expected(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, float64(b-a)/400.0))
}

// Apply moves a rating toward the actual score (1 win, 0 loss) and clamps
// at the floor so new players cannot be farmed into the ground.
func Apply(r int, expected, score float64, k int) int {
	nr := int(math.Round(float64(r) + float64(k)*(score-expected)))
	if nr < Floor {
		return Floor
	}
	return nr
}

// Outcome carries the updated ratings for both sides on every scale.
type Outcome struct {
	Winner map[Scale]int
	Loser  map[Scale]int
}

// Resolve computes the post-duel ratings for winner and loser given their
// current per-scale ratings.
func Resolve(winner, loser map[Scale]int) Outcome {
	out := Outcome{Winner: make(map[Scale]int, len(KFactors)), Loser: make(map[Scale]int, len(KFactors))}
	for scale, k := range KFactors {
		w := ratingOrStart(winner, scale)
		l := ratingOrStart(loser, scale)
		ew := Expected(w, l)
		out.Winner[scale] = Apply(w, ew, 1.0, k)
		out.Loser[scale] = Apply(l, 1.0-ew, 0.0, k)
	}
	return out
}

func ratingOrStart(m map[Scale]int, s Scale) int {
	if m == nil {
		return Start
	}
	if r, ok := m[s]; ok && r > 0 {
		return r
	}
	return Start
}
