// Package blocks manages the per-user catalog of activity blocks and
// resolves their recurring windows onto calendar dates.
package blocks

import (
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/cadence/store"
)

// Window is a block's recurring slot resolved onto one calendar date.
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolve decides whether block applies on the civil date of `date` in
// loc, and if so returns the absolute start/end instants. It never
// errors: a malformed time or an off-day both report not applicable.
func Resolve(block *store.ActivityBlock, date time.Time, loc *time.Location) (Window, bool) {
	if block == nil || loc == nil {
		return Window{}, false
	}

	local := date.In(loc)
	if !occursOn(block, local.Weekday()) {
		return Window{}, false
	}

	startH, startM, ok := parseClock(block.StartTime)
	if !ok {
		return Window{}, false
	}
	endH, endM, ok := parseClock(block.EndTime)
	if !ok {
		return Window{}, false
	}

	year, month, day := local.Date()
	return Window{
		Start: time.Date(year, month, day, startH, startM, 0, 0, loc),
		End:   time.Date(year, month, day, endH, endM, 0, 0, loc),
	}, true
}

// Elapsed reports whether the window has already ended, which only
// applies when the window's date is "today" relative to now. Windows on
// future dates never count as elapsed.
func (w Window) Elapsed(now time.Time) bool {
	local := now.In(w.Start.Location())
	if local.Year() != w.Start.Year() || local.YearDay() != w.Start.YearDay() {
		return false
	}
	return !local.Before(w.End)
}

// Midpoint returns the instant halfway through the window. The scorer
// predicts energy there for variable-profile blocks.
func (w Window) Midpoint() time.Time {
	return w.Start.Add(w.End.Sub(w.Start) / 2)
}

func occursOn(block *store.ActivityBlock, weekday time.Weekday) bool {
	for _, d := range block.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// parseClock parses local wall-clock "HH:MM".
func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
