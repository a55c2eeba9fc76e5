package energy

import (
	"sort"
	"time"

	"github.com/hrygo/cadence/store"
)

// Narration gates, by convention with the upstream orchestrator: below
// MinSamplesBasic the caller should not narrate the pattern at all,
// below MinSamplesWeekly it should skip weekly narration.
const (
	MinSamplesBasic  = 3
	MinSamplesWeekly = 7
)

// PeakHours returns up to n hours with the highest learned averages,
// best first. Unlearned hours never appear; ties resolve to the
// earlier hour.
func PeakHours(pattern *store.EnergyPattern, n int) []int {
	if pattern == nil || n <= 0 {
		return nil
	}

	hours := make([]int, 0, len(pattern.HourlyAverages))
	for hour := range pattern.HourlyAverages {
		hours = append(hours, hour)
	}
	sort.Slice(hours, func(i, j int) bool {
		a, b := pattern.HourlyAverages[hours[i]], pattern.HourlyAverages[hours[j]]
		if a != b {
			return a > b
		}
		return hours[i] < hours[j]
	})

	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}

// BestWeekdays returns up to n weekdays with the highest learned
// averages, best first, ties to the earlier weekday.
func BestWeekdays(pattern *store.EnergyPattern, n int) []time.Weekday {
	if pattern == nil || n <= 0 {
		return nil
	}

	days := make([]time.Weekday, 0, len(pattern.DayOfWeekAverages))
	for day := range pattern.DayOfWeekAverages {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		a, b := pattern.DayOfWeekAverages[days[i]], pattern.DayOfWeekAverages[days[j]]
		if a != b {
			return a > b
		}
		return days[i] < days[j]
	})

	if len(days) > n {
		days = days[:n]
	}
	return days
}
