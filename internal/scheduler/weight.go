package scheduler

import (
	"math"
	"math/rand"
	"sort"

	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/storage"
)

// shortlistSize bounds how many top-ranked candidates are eligible for
// weighted sampling (§4.5 step 2).
const shortlistSize = 5

// Candidate is one unordered engine pair with its computed pairing weight.
type Candidate struct {
	Pair   storage.PairKey
	I, J   storage.EngineSummary // I.ID == Pair.A, J.ID == Pair.B
	Weight float64
}

// ComputeCandidates scores every unordered pair of engines per §4.5's
// weight formula: 0.4*uncertainty + 0.3*proximity + 0.2*preference +
// 0.1*frequency.
func ComputeCandidates(engines []storage.EngineSummary, recentGames []model.Game, pairCounts map[storage.PairKey]int) []Candidate {
	volatility := volatilityByEngine(engines, recentGames)

	var out []Candidate
	for a := 0; a < len(engines); a++ {
		for b := a + 1; b < len(engines); b++ {
			i, j := engines[a], engines[b]
			pair := storage.NewPairKey(i.ID, j.ID)
			// NewPairKey may have swapped order; keep I/J aligned with it.
			if pair.A != i.ID {
				i, j = j, i
			}

			uI := uncertainty(i.GamesPlayed) + volatility[i.ID]
			uJ := uncertainty(j.GamesPlayed) + volatility[j.ID]
			u := (uI + uJ) / 2

			p := 1 / (1 + math.Abs(float64(i.Rating-j.Rating))/200)
			q := math.Min(1, float64(i.Rating+j.Rating)/2/2000)
			f := math.Max(0.1, 1-float64(pairCounts[pair])/50)

			w := 0.4*u + 0.3*p + 0.2*q + 0.1*f

			out = append(out, Candidate{Pair: pair, I: i, J: j, Weight: w})
		}
	}
	return out
}

func uncertainty(gamesPlayed int) float64 {
	return math.Max(0.1, 1-float64(gamesPlayed)/100)
}

// volatilityByEngine computes, for each engine with at least 2 recent games,
// min(0.5, mean(|Δrating|) over its last 10 recent games / 100).
func volatilityByEngine(engines []storage.EngineSummary, recentGames []model.Game) map[int64]float64 {
	type delta struct {
		playedAt int64
		abs      int
	}
	byEngine := make(map[int64][]delta, len(engines))

	for _, g := range recentGames {
		d1 := g.Engine1RatingPost - g.Engine1RatingPre
		d2 := g.Engine2RatingPost - g.Engine2RatingPre
		byEngine[g.Engine1ID] = append(byEngine[g.Engine1ID], delta{playedAt: g.PlayedAt.UnixNano(), abs: absInt(d1)})
		byEngine[g.Engine2ID] = append(byEngine[g.Engine2ID], delta{playedAt: g.PlayedAt.UnixNano(), abs: absInt(d2)})
	}

	out := make(map[int64]float64, len(byEngine))
	for id, deltas := range byEngine {
		if len(deltas) < 2 {
			continue
		}
		sort.Slice(deltas, func(a, b int) bool { return deltas[a].playedAt > deltas[b].playedAt })
		if len(deltas) > 10 {
			deltas = deltas[:10]
		}
		sum := 0
		for _, d := range deltas {
			sum += d.abs
		}
		mean := float64(sum) / float64(len(deltas))
		out[id] = math.Min(0.5, mean/100)
	}
	return out
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// SelectPair ranks candidates by weight descending (ties broken by lower
// pair index), takes the top shortlistSize, and samples one proportional to
// weight within that shortlist. It returns false if there are no
// candidates.
func SelectPair(candidates []Candidate, rng *rand.Rand) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Weight != ranked[b].Weight {
			return ranked[a].Weight > ranked[b].Weight
		}
		if ranked[a].Pair.A != ranked[b].Pair.A {
			return ranked[a].Pair.A < ranked[b].Pair.A
		}
		return ranked[a].Pair.B < ranked[b].Pair.B
	})

	n := shortlistSize
	if n > len(ranked) {
		n = len(ranked)
	}
	shortlist := ranked[:n]

	total := 0.0
	for _, c := range shortlist {
		total += c.Weight
	}
	if total <= 0 {
		return shortlist[0], true
	}

	r := rng.Float64() * total
	for _, c := range shortlist {
		r -= c.Weight
		if r <= 0 {
			return c, true
		}
	}
	return shortlist[len(shortlist)-1], true
}
