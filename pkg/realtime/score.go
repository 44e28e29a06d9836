package realtime

// OptimalWindow is the fraction of the allotted time within which a decision
// earns a full timing score.
const OptimalWindow = 0.6

// TimingScore grades how quickly a decision was made, in [0, 1].
//
// Decisions made within the first 60% of the allotted time score 1.0. Past
// that window the score decays linearly over the remaining 40%, floored at
// zero. This rewards decisive-but-not-instant responses and penalizes
// dawdling.
func TimingScore(timeAllowed, timeRemaining float64) float64 {
	if timeAllowed <= 0 {
		return 0
	}
	timeUsed := timeAllowed - timeRemaining
	optimalTime := timeAllowed * OptimalWindow
	if timeUsed <= optimalTime {
		return 1.0
	}
	score := 1 - (timeUsed-optimalTime)/(timeAllowed*(1-OptimalWindow))
	if score < 0 {
		return 0
	}
	return score
}
