// Package probability turns sector strengths into per-minute event chances.
// All values are percentages.
package probability

import "math"

const (
	goalBase            = 10.0
	goalDiffFactor      = 0.5
	goalKeeperWeight    = 0.3
	goalKeeperReduction = 0.1
	goalMin             = 1.0
	goalMax             = 50.0

	saveBase       = 30.0
	saveDiffFactor = 0.4
	saveMin        = 10.0
	saveMax        = 80.0

	saveDampening = 0.2
	minGoalChance = 0.5
)

// Goal returns the chance, in [1,50], that an attack scores against the
// given defense and goalkeeper.
func Goal(attack, opposingDefense, opposingGoalkeeper float64) float64 {
	p := goalBase + goalDiffFactor*(attack-opposingDefense) - goalKeeperReduction*(opposingGoalkeeper*goalKeeperWeight)
	return clamp(p, goalMin, goalMax)
}

// Save returns the chance, in [10,80], that a goalkeeper stops an attack.
func Save(goalkeeper, opposingAttack float64) float64 {
	return clamp(saveBase+saveDiffFactor*(goalkeeper-opposingAttack), saveMin, saveMax)
}

// EffectiveGoalChance dampens a goal chance by the opposing save chance.
// The result never drops below 0.5.
func EffectiveGoalChance(goal, save float64) float64 {
	return math.Max(minGoalChance, goal-saveDampening*save)
}

// Scores reports whether a uniform draw in [0,100) lands under chance.
func Scores(chance, draw float64) bool {
	return draw < chance
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
