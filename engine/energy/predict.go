package energy

import (
	"math"
	"time"

	"github.com/hrygo/cadence/engine/config"
	"github.com/hrygo/cadence/store"
)

// Predict estimates the user's energy (1-5 scale) for an hour and
// weekday, optionally anchored by a block's learned average. Pure and
// side-effect free.
//
// The hourly and day-of-week terms always contribute, defaulting to
// the neutral level when unlearned. The block term only contributes
// when that block has history; without it the two-term sum is
// renormalized so the result stays on the same scale.
func Predict(cfg *config.Config, pattern *store.EnergyPattern, hour int, weekday time.Weekday, blockID string) float64 {
	if cfg == nil {
		cfg = config.Default()
	}

	hourAvg := neutralLevel
	dayAvg := neutralLevel
	if pattern != nil {
		if v, ok := pattern.HourlyAverages[hour]; ok {
			hourAvg = v
		}
		if v, ok := pattern.DayOfWeekAverages[weekday]; ok {
			dayAvg = v
		}
	}

	sum := hourAvg*cfg.Prediction.HourWeight + dayAvg*cfg.Prediction.DayWeight

	blockAvg, hasBlock := 0.0, false
	if pattern != nil && blockID != "" {
		blockAvg, hasBlock = pattern.BlockAverages[blockID]
	}
	if hasBlock {
		sum += blockAvg * cfg.Prediction.BlockWeight
	} else {
		sum /= cfg.Prediction.HourWeight + cfg.Prediction.DayWeight
	}

	return math.Round(sum*10) / 10
}
