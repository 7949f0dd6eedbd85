package estimator

const (
	RecommendationNotEnoughData = "Continuez à pratiquer régulièrement pour obtenir une analyse de votre progression."

	RecommendationKeepGoing     = "Excellent progrès ! Continuez sur cette lancée."
	RecommendationHarderItems   = "Essayez des exercices plus difficiles pour vous challenger."
	RecommendationReviewBasics  = "Revoyez les notions fondamentales avant d'avancer."
	RecommendationPracticeOften = "Pratiquez plus fréquemment, même par de courtes sessions."
	RecommendationFundamentals  = "Concentrez-vous sur les bases."
	RecommendationIntermediate  = "Pratiquez des exercices de niveau intermédiaire."
	RecommendationNearMastery   = "Vous êtes proche de la maîtrise !"
)

const (
	intermediateLevelLowerBound = 4
	intermediateLevelUpperBound = 6
)

// Recommend returns the advice for a trend and current level. Rules are checked
// in a fixed order and every matching rule contributes.
func Recommend(trend Trend, currentLevel int) []string {
	var recs []string

	switch trend {
	case TrendImproving:
		recs = append(recs, RecommendationKeepGoing, RecommendationHarderItems)
	case TrendDeclining:
		recs = append(recs, RecommendationReviewBasics, RecommendationPracticeOften)
	}

	switch {
	case currentLevel < intermediateLevelLowerBound:
		recs = append(recs, RecommendationFundamentals)
	case currentLevel < intermediateLevelUpperBound:
		recs = append(recs, RecommendationIntermediate)
	default:
		recs = append(recs, RecommendationNearMastery)
	}

	return recs
}
