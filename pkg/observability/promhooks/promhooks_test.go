package promhooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/feedsolve/pkg/observability"
)

func TestHooksCount(t *testing.T) {
	ctx := context.Background()
	h := New()

	h.OnSolveComplete(ctx, "http://a", observability.SolveStats{Outcome: "solved", Backtracks: 2}, time.Millisecond, nil)
	h.OnSolveComplete(ctx, "http://a", observability.SolveStats{Outcome: "no_solution"}, time.Millisecond, nil)
	h.OnCandidates(ctx, "http://a", 5, 3)
	h.OnFeedLoad(ctx, "http://a", "network", time.Millisecond, nil)
	h.OnFeedLoad(ctx, "http://b", "network", time.Millisecond, errors.New("boom"))
	h.OnCacheHit(ctx, "feed")
	h.OnCacheSet(ctx, "feed", 100)
	h.OnResponse(ctx, "GET", "example.com", "/a", 503, time.Millisecond)

	if got := testutil.ToFloat64(h.solveTotal.WithLabelValues("solved")); got != 1 {
		t.Errorf("solved = %v", got)
	}
	if got := testutil.ToFloat64(h.candidates.WithLabelValues("false")); got != 2 {
		t.Errorf("unsuitable candidates = %v", got)
	}
	if got := testutil.ToFloat64(h.feedLoads.WithLabelValues("network", "error")); got != 1 {
		t.Errorf("feed errors = %v", got)
	}
	if got := testutil.ToFloat64(h.cacheBytes); got != 100 {
		t.Errorf("cache bytes = %v", got)
	}
	if got := testutil.ToFloat64(h.httpRequests.WithLabelValues("example.com", "5xx")); got != 1 {
		t.Errorf("5xx = %v", got)
	}
}

func TestWriteFile(t *testing.T) {
	h := New()
	h.OnCacheMiss(context.Background(), "feed")

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := h.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `feedsolve_cache_events_total{event="miss",key_type="feed"} 1`) {
		t.Errorf("metrics output missing cache miss:\n%s", data)
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()
	h := New()
	h.Install()
	if observability.Solver() != h || observability.Feed() != h {
		t.Error("Install did not register hooks")
	}
}
