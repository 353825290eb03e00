package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetryTransportStatusCodes(t *testing.T) {
	tests := []struct {
		name         string
		failStatus   int
		failures     int32
		wantStatus   int
		wantAttempts int32
	}{
		{name: "retriesOn503", failStatus: http.StatusServiceUnavailable, failures: 2, wantStatus: http.StatusOK, wantAttempts: 3},
		{name: "retriesOn500", failStatus: http.StatusInternalServerError, failures: 1, wantStatus: http.StatusOK, wantAttempts: 2},
		{name: "retriesOn502", failStatus: http.StatusBadGateway, failures: 1, wantStatus: http.StatusOK, wantAttempts: 2},
		{name: "retriesOn429", failStatus: http.StatusTooManyRequests, failures: 1, wantStatus: http.StatusOK, wantAttempts: 2},
		{name: "noRetryOn400", failStatus: http.StatusBadRequest, failures: 5, wantStatus: http.StatusBadRequest, wantAttempts: 1},
		{name: "noRetryOn401", failStatus: http.StatusUnauthorized, failures: 5, wantStatus: http.StatusUnauthorized, wantAttempts: 1},
		{name: "noRetryOn403", failStatus: http.StatusForbidden, failures: 5, wantStatus: http.StatusForbidden, wantAttempts: 1},
		{name: "noRetryOn404", failStatus: http.StatusNotFound, failures: 5, wantStatus: http.StatusNotFound, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&attempts, 1) <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := &http.Client{Transport: NewRetryTransport(nil, fastRetryConfig(3))}
			resp, err := client.Get(server.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if got := atomic.LoadInt32(&attempts); got != tt.wantAttempts {
				t.Errorf("expected %d attempts, got %d", tt.wantAttempts, got)
			}
		})
	}
}

func TestRetryTransportRespectsMaxRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	maxRetries := 2
	client := &http.Client{Transport: NewRetryTransport(nil, fastRetryConfig(maxRetries))}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected final status 503, got %d", resp.StatusCode)
	}
	expectedAttempts := int32(1 + maxRetries)
	if got := atomic.LoadInt32(&attempts); got != expectedAttempts {
		t.Errorf("expected %d attempts, got %d", expectedAttempts, got)
	}
}

func TestRetryTransportSkipsNonIdempotent(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewRetryTransport(nil, fastRetryConfig(3))}
	resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"snippet":{}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("expected 1 attempt for POST, got %d", got)
	}
}

func TestRetryTransportRetriesNetworkErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := &http.Client{Transport: NewRetryTransport(nil, fastRetryConfig(1))}
	if _, err := client.Get(url); err == nil {
		t.Error("expected error for closed server")
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
	if config.InitialDelay != 500*time.Millisecond {
		t.Errorf("expected InitialDelay 500ms, got %v", config.InitialDelay)
	}
	if config.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay 5s, got %v", config.MaxDelay)
	}
	if config.Multiplier != 2.0 {
		t.Errorf("expected Multiplier 2.0, got %f", config.Multiplier)
	}
}

func TestNewRetryTransportAppliesDefaults(t *testing.T) {
	transport := NewRetryTransport(nil, RetryConfig{})

	if transport.base != http.DefaultTransport {
		t.Error("expected http.DefaultTransport when nil is passed")
	}
	if transport.config.InitialDelay != 500*time.Millisecond {
		t.Errorf("expected InitialDelay 500ms, got %v", transport.config.InitialDelay)
	}
	if transport.config.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay 5s, got %v", transport.config.MaxDelay)
	}
	if transport.config.Multiplier != 2.0 {
		t.Errorf("expected Multiplier 2.0, got %f", transport.config.Multiplier)
	}
}
