// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"phishscore/internal/metrics"
	"phishscore/internal/telemetry"

	"golang.org/x/net/html/charset"
)

const (
	UserAgent       = "Mozilla/5.0 (compatible; phishscore/1.0)"
	DefaultMaxBytes = 5 << 20
	maxRedirects    = 5
	providerName    = "fetch"
)

var (
	ErrBlockedTarget = errors.New("target resolves to a private or reserved address")
	ErrHTTPStatus    = errors.New("unexpected HTTP status")
)

// Client downloads page markup. With GuardPrivate set, requests and redirects
// to private or reserved addresses are refused.
type Client struct {
	client       *http.Client
	userAgent    string
	maxBytes     int64
	guardPrivate bool
	resolve      func(ctx context.Context, host string) ([]string, error)
	telemetry    *telemetry.Registry
	metrics      *metrics.Metrics
}

type Option func(*Client)

func WithGuardPrivate(on bool) Option {
	return func(c *Client) { c.guardPrivate = on }
}

func WithMaxBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

func WithTelemetry(reg *telemetry.Registry) Option {
	return func(c *Client) { c.telemetry = reg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		userAgent: UserAgent,
		maxBytes:  DefaultMaxBytes,
		resolve:   net.DefaultResolver.LookupHost,
	}
	for _, o := range opts {
		o(c)
	}
	c.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if c.guardPrivate && !c.allowedTarget(req.Context(), req.URL) {
				return fmt.Errorf("redirect to %s: %w", req.URL.Host, ErrBlockedTarget)
			}
			return nil
		},
	}
	return c
}

// Fetch returns the page body decoded to UTF-8. Any status of 400 or above is
// an error.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	start := time.Now()
	body, err := c.fetch(ctx, rawURL)
	if err != nil {
		if c.telemetry != nil {
			c.telemetry.RecordFailure(providerName, err.Error())
		}
		c.metrics.LookupFailed(providerName)
		return "", err
	}
	if c.telemetry != nil {
		c.telemetry.RecordSuccess(providerName, time.Since(start))
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if c.guardPrivate && !c.allowedTarget(ctx, parsed) {
		return "", ErrBlockedTarget
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, c.maxBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func (c *Client) allowedTarget(ctx context.Context, u *url.URL) bool {
	host := u.Hostname()
	if host == "" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return !IsPrivateIP(host)
	}
	addrs, err := c.resolve(ctx, host)
	if err != nil || len(addrs) == 0 {
		return false
	}
	for _, addr := range addrs {
		if IsPrivateIP(addr) {
			return false
		}
	}
	return true
}

// IsPrivateIP reports loopback, RFC 1918, link-local, CGNAT (100.64/10),
// IETF protocol assignments (192.0.0/24) and benchmarking (198.18/15)
// addresses.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127:
			return true
		case ip4[0] == 192 && ip4[1] == 0 && ip4[2] == 0:
			return true
		case ip4[0] == 198 && (ip4[1] == 18 || ip4[1] == 19):
			return true
		}
	}
	return false
}
