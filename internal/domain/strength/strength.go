// Package strength scores a starting eleven into team and sector strengths.
package strength

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/matchday/internal/domain/model"
)

const (
	// StartersRequired is the size of a starting eleven.
	StartersRequired = 11
	// RatingCeiling is the maximum player overall.
	RatingCeiling = 99
	// NeutralAverage stands in for a sector without matching players.
	NeutralAverage = 50.0
	// MaxManagerBonus is the bonus granted to a manager rated 100.
	MaxManagerBonus = 10
)

// Sector weights of the overall blend.
const (
	WeightGoalkeeper = 0.15
	WeightDefense    = 0.25
	WeightMidfield   = 0.30
	WeightAttack     = 0.30
)

// keyword sets per sector. Goalkeeper matches whole values only.
var (
	goalkeeperExact = []string{"goleiro", "gk", "goalkeeper"}
	sectorKeywords  = map[model.Sector][]string{
		model.SectorDefense:  {"zagueiro", "lateral", "cb", "lb", "rb", "lwb", "rwb", "defender", "back"},
		model.SectorMidfield: {"volante", "meia", "cdm", "cm", "cam", "lm", "rm", "midfielder"},
		model.SectorAttack:   {"atacante", "ponta", "centroavante", "st", "cf", "lw", "rw", "forward", "winger", "striker"},
	}
)

// Classify returns every sector the entry contributes to. An entry may
// match several sectors or none.
func Classify(e model.RosterEntry) []model.Sector {
	var out []model.Sector
	if isGoalkeeper(e) {
		out = append(out, model.SectorGoalkeeper)
	}
	for _, sec := range []model.Sector{model.SectorDefense, model.SectorMidfield, model.SectorAttack} {
		if matchesAny(e.PositionShort, sectorKeywords[sec]) || matchesAny(e.PositionFull, sectorKeywords[sec]) {
			out = append(out, sec)
		}
	}
	return out
}

func isGoalkeeper(e model.RosterEntry) bool {
	for _, v := range []string{e.PositionShort, e.PositionFull} {
		v = strings.ToLower(strings.TrimSpace(v))
		for _, k := range goalkeeperExact {
			if v == k {
				return true
			}
		}
	}
	return false
}

// matchesAny compares short codes against whole tokens and longer keywords
// as substrings, so "ST" never matches inside "Striker" by accident.
func matchesAny(value string, keywords []string) bool {
	value = strings.ToLower(value)
	if value == "" {
		return false
	}
	tokens := strings.FieldsFunc(value, func(r rune) bool { return r == ' ' || r == '-' || r == '/' || r == '_' })
	for _, k := range keywords {
		if len(k) > 3 {
			if strings.Contains(value, k) {
				return true
			}
			continue
		}
		for _, t := range tokens {
			if t == k {
				return true
			}
		}
	}
	return false
}

// Compute scores a starting eleven. Entries past the eleventh are ignored.
func Compute(starters []model.RosterEntry) (model.TeamStrength, error) {
	if len(starters) < StartersRequired {
		return model.TeamStrength{}, fmt.Errorf("%w: got %d", ErrInsufficientRoster, len(starters))
	}
	starters = starters[:StartersRequired]

	sums := make(map[model.Sector]int, len(model.Sectors))
	counts := make(map[model.Sector]int, len(model.Sectors))
	for _, e := range starters {
		for _, sec := range Classify(e) {
			sums[sec] += e.Overall
			counts[sec]++
		}
	}

	averages := make(map[model.Sector]float64, len(model.Sectors))
	scaled := make(map[model.Sector]float64, len(model.Sectors))
	sectors := make(map[model.Sector]model.SectorStrength, len(model.Sectors))
	for _, sec := range model.Sectors {
		avg := NeutralAverage
		if counts[sec] > 0 {
			avg = float64(sums[sec]) / float64(counts[sec])
		}
		averages[sec] = avg
		scaled[sec] = clampF(avg/RatingCeiling*100, 0, 100)
		sectors[sec] = model.SectorStrength{Average: int(math.Round(avg)), Count: counts[sec]}
	}

	overall := math.Round(
		scaled[model.SectorGoalkeeper]*WeightGoalkeeper +
			scaled[model.SectorDefense]*WeightDefense +
			scaled[model.SectorMidfield]*WeightMidfield +
			scaled[model.SectorAttack]*WeightAttack,
	)

	return model.TeamStrength{
		Overall:    int(clampF(overall, 1, 100)),
		Attack:     int(math.Round(scaled[model.SectorAttack])),
		Midfield:   int(math.Round(scaled[model.SectorMidfield])),
		Defense:    int(math.Round(scaled[model.SectorDefense])),
		Goalkeeper: int(math.Round(scaled[model.SectorGoalkeeper])),
		Sectors:    sectors,
	}, nil
}

// ManagerBonus converts a 0..100 manager skill into a 0..10 bonus.
func ManagerBonus(skill int) int {
	s := clampF(float64(skill), 0, 100)
	return int(math.Round(s / 100 * MaxManagerBonus))
}

// WithManagerBonus adds the manager bonus to the overall and every sector
// score, re-clamping each to 100.
func WithManagerBonus(ts model.TeamStrength, skill int) model.TeamStrength {
	b := ManagerBonus(skill)
	ts.Overall = clampI(ts.Overall+b, 1, 100)
	ts.Attack = clampI(ts.Attack+b, 0, 100)
	ts.Midfield = clampI(ts.Midfield+b, 0, 100)
	ts.Defense = clampI(ts.Defense+b, 0, 100)
	ts.Goalkeeper = clampI(ts.Goalkeeper+b, 0, 100)
	return ts
}

// Uniform builds a strength where every sector equals value, used for
// synthetic opponents.
func Uniform(value int) model.TeamStrength {
	v := clampI(value, 0, 100)
	return model.TeamStrength{
		Overall: clampI(v, 1, 100), Attack: v, Midfield: v, Defense: v, Goalkeeper: v,
		Sectors: map[model.Sector]model.SectorStrength{},
	}
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
