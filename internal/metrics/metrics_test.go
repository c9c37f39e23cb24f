package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResult(t *testing.T) {
	if Result(nil) != ResultSuccess || Result(errors.New("x")) != ResultError {
		t.Error("unexpected result labels")
	}
}

func TestPipelineFallbacksCounter(t *testing.T) {
	before := testutil.ToFloat64(PipelineFallbacksTotal.WithLabelValues(FallbackPosterMissing))
	PipelineFallbacksTotal.WithLabelValues(FallbackPosterMissing).Inc()
	after := testutil.ToFloat64(PipelineFallbacksTotal.WithLabelValues(FallbackPosterMissing))
	if after-before != 1 {
		t.Errorf("counter moved by %v; want 1", after-before)
	}
}
