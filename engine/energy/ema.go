// Package energy learns a user's energy rhythm from explicit
// self-reports and inferred conversational statements, and predicts
// energy for arbitrary (hour, weekday, block) combinations.
package energy

// EMA folds a new observation into a running exponential moving
// average. A nil current means no prior observation: the value is
// adopted as-is.
func EMA(current *float64, value, alpha float64) float64 {
	if current == nil {
		return value
	}
	return alpha*value + (1-alpha)*(*current)
}

// emaInto updates one cell of an averages map in place.
func emaInto[K comparable](averages map[K]float64, key K, value, alpha float64) {
	if existing, ok := averages[key]; ok {
		averages[key] = EMA(&existing, value, alpha)
		return
	}
	averages[key] = EMA(nil, value, alpha)
}

// Qualitative energy labels map onto numeric anchors on the 1-5 scale.
const (
	anchorLow    = 2.0
	anchorMedium = 3.0
	anchorHigh   = 4.0

	// neutralLevel is assumed wherever nothing has been learned yet.
	neutralLevel = 3.0
)

// Anchor maps a qualitative level to its numeric anchor. Unknown
// labels resolve to the neutral level.
func Anchor(level string) float64 {
	switch level {
	case "low":
		return anchorLow
	case "medium":
		return anchorMedium
	case "high":
		return anchorHigh
	default:
		return neutralLevel
	}
}
