package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFragment(t *testing.T) {
	m := New()

	m.ObserveFragment(FragmentOK, 120*time.Millisecond)
	m.ObserveFragment(FragmentOK, 80*time.Millisecond)
	m.ObserveFragment(FragmentFetchError, time.Second)
	m.ObserveFragment(FragmentRejected, 0)

	if got := testutil.ToFloat64(m.fragments.WithLabelValues(FragmentOK)); got != 2 {
		t.Errorf("ok fragments = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.fragments.WithLabelValues(FragmentFetchError)); got != 1 {
		t.Errorf("fetch_error fragments = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fragments.WithLabelValues(FragmentRejected)); got != 1 {
		t.Errorf("rejected fragments = %v, want 1", got)
	}
}

func TestObserveExtraction(t *testing.T) {
	m := New()

	m.ObserveExtraction(ExtractionSuccess, 2*time.Second)
	m.ObserveExtraction(ExtractionFailure, 0)

	if got := testutil.ToFloat64(m.extractions.WithLabelValues(ExtractionSuccess)); got != 1 {
		t.Errorf("success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.extractions.WithLabelValues(ExtractionFailure)); got != 1 {
		t.Errorf("failure = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveFragment(FragmentOK, time.Second)
	m.ObserveExtraction(ExtractionSuccess, time.Second)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveFragment(FragmentStructureError, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `scoutteam_fragments_total{outcome="structure_error"} 1`) {
		t.Errorf("metrics output missing fragment counter:\n%s", body)
	}
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveExtraction(ExtractionSuccess, time.Second)

	if got := testutil.ToFloat64(b.extractions.WithLabelValues(ExtractionSuccess)); got != 0 {
		t.Errorf("second registry saw %v extractions, want 0", got)
	}
}
