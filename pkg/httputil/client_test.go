package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "feedsolve-test" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("<interface/>"))
	}))
	defer srv.Close()

	c := NewClient(WithHeader("User-Agent", "feedsolve-test"), WithRateLimit(0, 0))
	body, err := c.Get(context.Background(), srv.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "<interface/>" {
		t.Errorf("body = %q", body)
	}
}

func TestClientStatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		wantErr   error
		retryable bool
	}{
		{http.StatusNotFound, ErrNotFound, false},
		{http.StatusGone, ErrNotFound, false},
		{http.StatusInternalServerError, ErrNetwork, true},
		{http.StatusTooManyRequests, ErrNetwork, true},
		{http.StatusForbidden, ErrNetwork, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := NewClient(WithRateLimit(0, 0)).Get(context.Background(), srv.URL)
		srv.Close()

		if !errors.Is(err, tt.wantErr) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.wantErr)
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("status %d: retryable = %v", tt.status, IsRetryable(err))
		}
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(WithRateLimit(0, 0))
	var body []byte
	err := Retry(context.Background(), 3, 0, func() error {
		var err error
		body, err = c.Get(context.Background(), srv.URL)
		return err
	})
	if err != nil || string(body) != "ok" || calls.Load() != 2 {
		t.Errorf("err=%v body=%q calls=%d", err, body, calls.Load())
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(WithRateLimit(0, 0)).Get(context.Background(), url)
	if !errors.Is(err, ErrNetwork) || !IsRetryable(err) {
		t.Errorf("err = %v", err)
	}
}
