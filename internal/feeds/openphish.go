// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package feeds

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"phishscore/internal/metrics"
	"phishscore/internal/telemetry"
)

const (
	OpenPhishFeedURL  = "https://raw.githubusercontent.com/openphish/public_feed/refs/heads/main/feed.txt"
	OpenPhishCacheTTL = 12 * time.Hour
	providerName      = "openphish"
	maxFeedBytes      = 16 << 20
)

// OpenPhish answers whether a URL or its host appears in the OpenPhish
// public feed. The feed is downloaded on first use and refreshed after TTL;
// a failed refresh keeps serving the previous copy.
type OpenPhish struct {
	FeedURL   string
	TTL       time.Duration
	HTTP      *http.Client
	Telemetry *telemetry.Registry
	Metrics   *metrics.Metrics

	mu        sync.RWMutex
	entries   map[string]bool
	fetchedAt time.Time
	now       func() time.Time
}

func NewOpenPhish(feedURL string, reg *telemetry.Registry) *OpenPhish {
	return &OpenPhish{
		FeedURL:   feedURL,
		TTL:       OpenPhishCacheTTL,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
		Telemetry: reg,
		now:       time.Now,
	}
}

// Listed reports whether rawURL or its host is in the feed. An error means the
// feed has never been loaded.
func (o *OpenPhish) Listed(ctx context.Context, rawURL string) (bool, error) {
	feed, err := o.feed(ctx)
	if err != nil {
		return false, err
	}
	if feed[strings.ToLower(rawURL)] {
		return true, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false, nil
	}
	return feed[strings.ToLower(parsed.Host)], nil
}

func (o *OpenPhish) feed(ctx context.Context) (map[string]bool, error) {
	o.mu.RLock()
	if o.entries != nil && o.now().Sub(o.fetchedAt) < o.TTL {
		defer o.mu.RUnlock()
		return o.entries, nil
	}
	o.mu.RUnlock()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.entries != nil && o.now().Sub(o.fetchedAt) < o.TTL {
		return o.entries, nil
	}

	start := time.Now()
	fresh, err := o.download(ctx)
	if err != nil {
		if o.Telemetry != nil {
			o.Telemetry.RecordFailure(providerName, err.Error())
		}
		o.Metrics.LookupFailed(providerName)
		if o.entries != nil {
			slog.Warn("OpenPhish refresh failed, serving stale feed", "error", err, "age", o.now().Sub(o.fetchedAt).String())
			return o.entries, nil
		}
		return nil, err
	}
	if o.Telemetry != nil {
		o.Telemetry.RecordSuccess(providerName, time.Since(start))
	}

	o.entries = fresh
	o.fetchedAt = o.now()
	slog.Info("OpenPhish feed loaded", "entries", len(fresh))
	return o.entries, nil
}

func (o *OpenPhish) download(ctx context.Context) (map[string]bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.FeedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openphish feed: HTTP %d", resp.StatusCode)
	}
	return parseFeed(io.LimitReader(resp.Body, maxFeedBytes))
}

// parseFeed indexes each listed URL and its host.
func parseFeed(r io.Reader) (map[string]bool, error) {
	feed := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parsed, err := url.Parse(line)
		if err == nil && parsed.Host != "" {
			feed[strings.ToLower(parsed.Host)] = true
			feed[strings.ToLower(line)] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(feed) == 0 {
		return nil, fmt.Errorf("openphish feed is empty")
	}
	return feed, nil
}
