// Package estimator holds the learner ability and trend estimation used by the
// adaptive exercises and the progress dashboards. Every function here is pure and
// safe to call concurrently.
package estimator

const (
	// LearningRate is the share of the remaining distance moved per answer.
	LearningRate = 0.1

	ConfidenceGain = 0.05
	ConfidenceLoss = 0.1

	MinDifficulty = 0.1
	MaxDifficulty = 0.9

	difficultySpread = 0.2
)

// AbilityState is a learner's running estimate. Both fields stay within [0,1].
type AbilityState struct {
	Ability    float64 `json:"ability"`
	Confidence float64 `json:"confidence"`
}

// ItemResponse is one answered item.
type ItemResponse struct {
	Difficulty float64 `json:"difficulty"`
	Correct    bool    `json:"correct"`
}

// UpdateAbility applies one response to the state. A correct answer moves the
// ability a tenth of the way towards 1, a wrong answer a tenth of the way towards 0.
// The item difficulty does not enter the adjustment.
func UpdateAbility(state AbilityState, response ItemResponse) AbilityState {
	ability := Clamp(state.Ability, 0, 1)
	confidence := Clamp(state.Confidence, 0, 1)

	if response.Correct {
		ability += LearningRate * (1 - ability)
		confidence += ConfidenceGain
	} else {
		ability -= LearningRate * ability
		confidence -= ConfidenceLoss
	}

	return AbilityState{
		Ability:    Clamp(ability, 0, 1),
		Confidence: Clamp(confidence, 0, 1),
	}
}

// ApplyResponses folds a sequence of responses into state and returns every
// intermediate state, the last one being the final estimate.
func ApplyResponses(state AbilityState, responses []ItemResponse) []AbilityState {
	steps := make([]AbilityState, 0, len(responses))
	for _, r := range responses {
		state = UpdateAbility(state, r)
		steps = append(steps, state)
	}
	return steps
}

// OptimalDifficulty returns the difficulty of the next item to serve.
func OptimalDifficulty(ability, confidence float64) float64 {
	return Clamp(ability+(confidence-0.5)*difficultySpread, MinDifficulty, MaxDifficulty)
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
