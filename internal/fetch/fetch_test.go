// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"phishscore/internal/telemetry"
)

func TestFetch_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><title>Hi</title></html>")
	}))
	defer srv.Close()

	reg := telemetry.NewRegistry()
	c := New(5*time.Second, WithTelemetry(reg))
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "<html><title>Hi</title></html>" {
		t.Errorf("body = %q", body)
	}
	if s := reg.Stats("fetch"); s.Successes != 1 {
		t.Errorf("successes = %d, want 1", s.Successes)
	}
}

func TestFetch_DecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<title>Caf\xe9</title>"))
	}))
	defer srv.Close()

	body, err := New(5*time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "Café") {
		t.Errorf("body not decoded to UTF-8: %q", body)
	}
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	reg := telemetry.NewRegistry()
	_, err := New(5*time.Second, WithTelemetry(reg)).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("error = %v, want ErrHTTPStatus", err)
	}
	if s := reg.Stats("fetch"); s.Failures != 1 {
		t.Errorf("failures = %d, want 1", s.Failures)
	}
}

func TestFetch_SizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, strings.Repeat("a", 1000))
	}))
	defer srv.Close()

	body, err := New(5*time.Second, WithMaxBytes(100)).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) != 100 {
		t.Errorf("len(body) = %d, want 100", len(body))
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := New(5*time.Second).Fetch(ctx, srv.URL); err == nil {
		t.Error("expected timeout error")
	}
}

func TestFetch_GuardBlocksPrivateTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("guarded client must not reach a loopback server")
	}))
	defer srv.Close()

	_, err := New(5*time.Second, WithGuardPrivate(true)).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrBlockedTarget) {
		t.Errorf("error = %v, want ErrBlockedTarget", err)
	}
}

func TestFetch_GuardChecksResolvedAddresses(t *testing.T) {
	c := New(5*time.Second, WithGuardPrivate(true))
	c.resolve = func(_ context.Context, host string) ([]string, error) {
		if host == "internal.example" {
			return []string{"93.184.216.34", "10.0.0.5"}, nil
		}
		return []string{"93.184.216.34"}, nil
	}

	_, err := c.Fetch(context.Background(), "http://internal.example/")
	if !errors.Is(err, ErrBlockedTarget) {
		t.Errorf("error = %v, want ErrBlockedTarget", err)
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"192.168.1.100", true},
		{"127.0.0.1", true},
		{"169.254.1.1", true},
		{"100.64.0.1", true},
		{"192.0.0.1", true},
		{"198.18.0.1", true},
		{"0.0.0.0", true},
		{"::1", true},
		{"fd00::1", true},
		{"8.8.8.8", false},
		{"100.128.0.1", false},
		{"2606:4700::1111", false},
		{"invalid", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := IsPrivateIP(tt.ip); got != tt.private {
				t.Errorf("IsPrivateIP(%q) = %v, want %v", tt.ip, got, tt.private)
			}
		})
	}
}
