package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSolverHooks{}
	s.OnSolveStart(ctx, "http://example.com/prog.xml")
	s.OnCandidates(ctx, "http://example.com/prog.xml", 4, 2)
	s.OnSolveComplete(ctx, "http://example.com/prog.xml", SolveStats{Outcome: "solved", Selected: 3}, time.Second, nil)

	f := NoopFeedHooks{}
	f.OnFeedLoad(ctx, "http://example.com/prog.xml", "network", time.Second, errors.New("boom"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "feed")
	c.OnCacheMiss(ctx, "feed")
	c.OnCacheSet(ctx, "feed", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "example.com", "/prog.xml")
	h.OnResponse(ctx, "GET", "example.com", "/prog.xml", 200, time.Second)
	h.OnError(ctx, "GET", "example.com", "/prog.xml", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Solver().(NoopSolverHooks); !ok {
		t.Error("Solver() should return NoopSolverHooks by default")
	}
	if _, ok := Feed().(NoopFeedHooks); !ok {
		t.Error("Feed() should return NoopFeedHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customSolver := &testSolverHooks{}
	SetSolverHooks(customSolver)
	if Solver() != customSolver {
		t.Error("SetSolverHooks should set custom hooks")
	}

	customFeed := &testFeedHooks{}
	SetFeedHooks(customFeed)
	if Feed() != customFeed {
		t.Error("SetFeedHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Solver().(NoopSolverHooks); !ok {
		t.Error("Reset() should restore NoopSolverHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testSolverHooks{}
	SetSolverHooks(custom)
	SetSolverHooks(nil)

	if Solver() != custom {
		t.Error("SetSolverHooks(nil) should be ignored")
	}
}

type testSolverHooks struct{ NoopSolverHooks }
type testFeedHooks struct{ NoopFeedHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
