package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := New(nil)

	t.Run("LearningUpdate", func(t *testing.T) {
		m.LearningUpdate("explicit")
		m.LearningUpdate("explicit")
		m.LearningUpdate("observed")
	})

	t.Run("ScoreComputed", func(t *testing.T) {
		m.ScoreComputed("scored", 0.66)
		m.ScoreComputed("not_applicable", 0)
		m.ScoreComputed("elapsed", 0)
	})

	t.Run("RankingDone", func(t *testing.T) {
		m.RankingDone(2*time.Millisecond, 3)
	})

	t.Run("Handler exposes counters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, req)

		body := rec.Body.String()
		if !strings.Contains(body, "cadence_learning_updates_total") {
			t.Error("expected learning counter in exposition")
		}
		if !strings.Contains(body, `cadence_learning_updates_total{source="explicit"} 2`) {
			t.Error("expected explicit source count of 2")
		}
		if !strings.Contains(body, "cadence_block_scores_total") {
			t.Error("expected score counter in exposition")
		}
	})
}

func TestMetrics_NilReceiverSafe(t *testing.T) {
	var m *Metrics

	// Engines run without metrics wired; none of these may panic.
	m.LearningUpdate("explicit")
	m.ScoreComputed("scored", 0.5)
	m.RankingDone(time.Millisecond, 1)
	if m.Registry() != nil {
		t.Error("nil metrics has no registry")
	}
	if m.Handler() == nil {
		t.Error("nil metrics still serves a default handler")
	}
}
