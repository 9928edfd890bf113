package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/okian/matchday/internal/domain/model"
)

const (
	minPossession = 20
	maxPossession = 80
	baseShots     = 8
	baseTackles   = 10
	basePasses    = 5
	baseFouls     = 10
	spread        = 10
)

// statistics derives cosmetic numbers biased by the overall differential.
func statistics(rng *rand.Rand, diff int, goals [2]int) model.Statistics {
	possession := clamp(50+diff, minPossession, maxPossession)
	shotBias := int(math.Floor(float64(diff) / 10 * 5))
	shots1 := max(goals[0], baseShots+shotBias+rng.IntN(spread))
	shots2 := max(goals[1], baseShots-shotBias+rng.IntN(spread))
	return model.Statistics{
		Possession:      model.Pair{Side1: possession, Side2: 100 - possession},
		Shots:           model.Pair{Side1: shots1, Side2: shots2},
		Tackles:         model.Pair{Side1: baseTackles + rng.IntN(spread), Side2: baseTackles + rng.IntN(spread)},
		MisplacedPasses: model.Pair{Side1: basePasses + rng.IntN(spread), Side2: basePasses + rng.IntN(spread)},
		Fouls:           model.Pair{Side1: baseFouls + rng.IntN(spread), Side2: baseFouls + rng.IntN(spread)},
	}
}

func snapshot(rng *rand.Rand, t team, reds int) model.SideSnapshot {
	grades := make([]model.PlayerGrade, len(t.starters))
	for i, e := range t.starters {
		g := 6 + float64(e.Overall)/20 + (rng.Float64()*2 - 1)
		grades[i] = model.PlayerGrade{
			Player:   e.Name,
			Position: e.PositionShort,
			Grade:    math.Round(math.Max(0, math.Min(10, g))*10) / 10,
		}
	}
	return model.SideSnapshot{
		ParticipantID: t.participantID,
		Club:          t.club,
		Strength:      t.strength,
		Starters:      t.starters,
		Grades:        grades,
		RedCards:      reds,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
