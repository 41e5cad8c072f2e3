package scan

import "math"

// FairnessScore computes the overall visibility score as the percentage
// of responding providers where the brand was visible, rounded to the
// nearest integer. Providers that failed to respond are excluded from
// the denominator so outages do not drag the score down.
func FairnessScore(visible, responded int) int {
	if responded == 0 {
		return 0
	}
	return int(math.Round(100 * float64(visible) / float64(responded)))
}
