// Package scoring rates how well a task fits an activity block on a
// given date, and ranks blocks across a lookahead window. The scorer
// is a greedy, explainable heuristic: four weighted sub-scores, each
// in [0,1], never an error.
package scoring

import (
	"strings"
	"time"

	"github.com/hrygo/cadence/engine/blocks"
	"github.com/hrygo/cadence/engine/config"
	"github.com/hrygo/cadence/engine/energy"
	"github.com/hrygo/cadence/engine/metrics"
	"github.com/hrygo/cadence/store"
)

// Task is the caller-supplied scheduling view of a task. It is never
// persisted.
type Task struct {
	Content string
	// EnergyRequired is "low", "medium" or "high"; empty or unknown
	// resolves to neutral.
	EnergyRequired string
	// ContextTags are free-form tags, with or without a leading "@".
	ContextTags []string
	// EstimatedMinutes is reserved for the duration-fit sub-score.
	EstimatedMinutes int
}

// Reason labels attached to a score.
const (
	ReasonNotActive     = "not active this day"
	ReasonTimePassed    = "time has passed"
	ReasonEnergyMatch   = "great energy match"
	ReasonCategoryMatch = "matches task categories"
	ReasonGoodHistory   = "good track record in this block"
)

// BlockScore is one (task, block, date) rating.
type BlockScore struct {
	Block *store.ActivityBlock
	// Date is the civil date the block was scored for.
	Date time.Time
	// Window is the resolved slot; zero when the block did not apply.
	Window blocks.Window
	// Score is the suitability estimate in [0,1].
	Score float64
	// Reasons are ordered labels for the sub-scores worth mentioning.
	Reasons []string
}

// Scorer computes suitability scores against a pattern snapshot.
type Scorer struct {
	cfg     *config.Config
	metrics *metrics.Metrics
}

// NewScorer creates a scorer. metrics may be nil.
func NewScorer(cfg *config.Config, m *metrics.Metrics) *Scorer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Scorer{cfg: cfg, metrics: m}
}

// Score rates one (task, block, date) combination. pattern may be nil
// (nothing learned yet); every input yields a score in [0,1].
//
// Blocks that do not recur on the date, and today's blocks whose slot
// has already ended, gate to zero before any sub-score is computed.
func (s *Scorer) Score(task Task, block *store.ActivityBlock, pattern *store.EnergyPattern, date time.Time, loc *time.Location, now time.Time) BlockScore {
	result := BlockScore{Block: block, Date: date}

	window, ok := blocks.Resolve(block, date, loc)
	if !ok {
		result.Reasons = []string{ReasonNotActive}
		s.metrics.ScoreComputed("not_applicable", 0)
		return result
	}
	result.Window = window

	if window.Elapsed(now) {
		result.Reasons = []string{ReasonTimePassed}
		s.metrics.ScoreComputed("elapsed", 0)
		return result
	}

	energyScore := s.energyMatch(task, block, pattern, window)
	categoryScore := s.categoryMatch(task, block)
	historyScore := s.historicalSuccess(block, pattern)
	durationScore := s.cfg.Scoring.DurationFitScore

	result.Score = energyScore*s.cfg.Scoring.EnergyWeight +
		categoryScore*s.cfg.Scoring.CategoryWeight +
		historyScore*s.cfg.Scoring.HistoryWeight +
		durationScore*s.cfg.Scoring.DurationWeight

	if energyScore > 0.8 {
		result.Reasons = append(result.Reasons, ReasonEnergyMatch)
	}
	if categoryScore > 0.5 {
		result.Reasons = append(result.Reasons, ReasonCategoryMatch)
	}
	if historyScore > 0.5 {
		result.Reasons = append(result.Reasons, ReasonGoodHistory)
	}

	s.metrics.ScoreComputed("scored", result.Score)
	return result
}

// energyMatch compares the task's required energy to the block's
// character on the 1-5 scale. A "variable" block substitutes a live
// prediction at the slot midpoint for the fixed anchor.
func (s *Scorer) energyMatch(task Task, block *store.ActivityBlock, pattern *store.EnergyPattern, window blocks.Window) float64 {
	taskLevel := energy.Anchor(task.EnergyRequired)

	var blockLevel float64
	if block.EnergyProfile == store.EnergyProfileVariable {
		mid := window.Midpoint()
		blockLevel = energy.Predict(s.cfg, pattern, mid.Hour(), mid.Weekday(), block.ID)
	} else {
		blockLevel = energy.Anchor(string(block.EnergyProfile))
	}

	score := 1 - abs(taskLevel-blockLevel)/3
	if score < 0 {
		return 0
	}
	return score
}

// categoryMatch is the share of task tags matching a block category.
// A tag and a category match when either contains the other. Tags that
// normalize to empty are dropped; empty strings would substring-match
// everything. Tasks without usable tags rate every block the same
// neutral 0.5.
func (s *Scorer) categoryMatch(task Task, block *store.ActivityBlock) float64 {
	tags := make([]string, 0, len(task.ContextTags))
	for _, tag := range task.ContextTags {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "@")))
		if normalized != "" {
			tags = append(tags, normalized)
		}
	}
	if len(tags) == 0 {
		return 0.5
	}

	categories := make([]string, 0, len(block.TaskCategories))
	for _, c := range block.TaskCategories {
		if c != "" {
			categories = append(categories, strings.ToLower(c))
		}
	}

	matched := 0
	for _, tag := range tags {
		for _, category := range categories {
			if strings.Contains(category, tag) || strings.Contains(tag, category) {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(len(tags))
}

// historicalSuccess rescales the learned 1-5 block average onto [0,1];
// blocks without history rate neutral.
func (s *Scorer) historicalSuccess(block *store.ActivityBlock, pattern *store.EnergyPattern) float64 {
	if pattern == nil {
		return 0.5
	}
	avg, ok := pattern.BlockAverages[block.ID]
	if !ok {
		return 0.5
	}
	return (avg - 1) / 4
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
