package simulation

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/probability"
	"github.com/okian/matchday/internal/domain/strength"
)

// minutePool hands out each match minute at most once.
type minutePool struct {
	free []int
}

func newMinutePool(n int) *minutePool {
	p := &minutePool{free: make([]int, n)}
	for i := range p.free {
		p.free[i] = i + 1
	}
	return p
}

// take removes a random free minute. ok is false once the pool is empty.
func (p *minutePool) take(rng *rand.Rand) (minute int, ok bool) {
	if len(p.free) == 0 {
		return 0, false
	}
	i := rng.IntN(len(p.free))
	minute = p.free[i]
	last := len(p.free) - 1
	p.free[i] = p.free[last]
	p.free = p.free[:last]
	return minute, true
}

// attack-adjusted figures for one side after red cards.
type adjusted struct {
	attack, defense, goalkeeper float64
}

func penalize(ts model.TeamStrength, reds int) adjusted {
	f := math.Max(0, 1-redCardPenalty*float64(reds))
	return adjusted{
		attack:     float64(ts.Attack) * f,
		defense:    float64(ts.Defense) * f,
		goalkeeper: float64(ts.Goalkeeper) * f,
	}
}

// play runs the full per-minute loop and assembles an outcome without id,
// mode or timestamp.
func (g *Generator) play(home, away team) *model.MatchOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	rng := g.rng

	teams := [2]team{home, away}
	pool := newMinutePool(matchMinutes)
	events := make([]model.MatchEvent, 0, 48)
	var reds [2]int

	cards := rng.IntN(maxCards + 1)
	for i := 0; i < cards; i++ {
		minute, ok := pool.take(rng)
		if !ok {
			break
		}
		s := rng.IntN(2)
		kind := model.EventYellowCard
		if rng.Float64() < redCardShare {
			kind = model.EventRedCard
			reds[s]++
		}
		events = append(events, model.MatchEvent{Minute: minute, Kind: kind, Actor: anyStarter(rng, teams[s]), Side: s + 1})
	}

	// Penalty is computed once from the original strengths.
	adj := [2]adjusted{penalize(home.strength, reds[0]), penalize(away.strength, reds[1])}

	var goals [2]int
	for minute := 1; minute <= matchMinutes; minute++ {
		for s := 0; s < 2; s++ {
			opp := 1 - s
			goal := probability.Goal(adj[s].attack, adj[opp].defense, adj[opp].goalkeeper)
			save := probability.Save(adj[opp].goalkeeper, adj[s].attack)
			if !probability.Scores(probability.EffectiveGoalChance(goal, save), rng.Float64()*100) {
				continue
			}
			at, ok := pool.take(rng)
			if !ok {
				continue
			}
			goals[s]++
			events = append(events, model.MatchEvent{Minute: at, Kind: model.EventGoal, Actor: scorer(rng, teams[s]), Side: s + 1})
		}
	}

	fillers := minFillers + rng.IntN(fillerSpread)
	for i := 0; i < fillers; i++ {
		minute, ok := pool.take(rng)
		if !ok {
			break
		}
		s := rng.IntN(2)
		kind := model.FillerKinds[rng.IntN(len(model.FillerKinds))]
		events = append(events, model.MatchEvent{Minute: minute, Kind: kind, Actor: anyStarter(rng, teams[s]), Side: s + 1})
	}

	slices.SortFunc(events, func(a, b model.MatchEvent) int { return a.Minute - b.Minute })

	out := &model.MatchOutcome{
		Side1Goals: goals[0],
		Side2Goals: goals[1],
		Events:     events,
		Statistics: statistics(rng, home.strength.Overall-away.strength.Overall, goals),
		Side1:      snapshot(rng, home, reds[0]),
		Side2:      snapshot(rng, away, reds[1]),
	}
	switch {
	case goals[0] > goals[1]:
		out.WinnerSide = model.WinnerSide1
		out.WinnerID = home.participantID
	case goals[1] > goals[0]:
		out.WinnerSide = model.WinnerSide2
		out.WinnerID = away.participantID
	}
	return out
}

// scorer prefers attack-sector starters and falls back to anyone.
func scorer(rng *rand.Rand, t team) string {
	attackers := make([]string, 0, len(t.starters))
	for _, e := range t.starters {
		if slices.Contains(strength.Classify(e), model.SectorAttack) {
			attackers = append(attackers, e.Name)
		}
	}
	if len(attackers) > 0 {
		return attackers[rng.IntN(len(attackers))]
	}
	return anyStarter(rng, t)
}

func anyStarter(rng *rand.Rand, t team) string {
	if len(t.starters) == 0 {
		return ""
	}
	return t.starters[rng.IntN(len(t.starters))].Name
}
