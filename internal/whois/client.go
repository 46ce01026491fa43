// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package whois

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"phishscore/internal/metrics"
	"phishscore/internal/telemetry"
)

var (
	ErrNoCreationDate   = errors.New("no creation date in registration data")
	ErrRestricted       = errors.New("registry restricts public registration data")
	ErrProviderCooldown = errors.New("registration provider in cooldown")
)

const (
	maxRDAPBody      = 1 << 20
	maxWHOISResponse = 64 << 10
	whoisPort        = "43"
)

// Lookup returns the creation timestamps a registry reports for a domain, in
// the order they appear in the response.
type Lookup interface {
	CreationDates(ctx context.Context, domain string) ([]time.Time, error)
}

var DefaultRDAPEndpoints = map[string]string{
	"com":   "https://rdap.verisign.com/com/v1/",
	"net":   "https://rdap.verisign.com/net/v1/",
	"org":   "https://rdap.publicinterestregistry.org/rdap/",
	"io":    "https://rdap.identitydigital.services/rdap/",
	"dev":   "https://pubapi.registry.google/rdap/",
	"app":   "https://pubapi.registry.google/rdap/",
	"uk":    "https://rdap.nominet.uk/uk/",
	"nl":    "https://rdap.sidn.nl/",
	"cc":    "https://rdap.verisign.com/cc/v1/",
	"tv":    "https://rdap.verisign.com/tv/v1/",
	"name":  "https://rdap.verisign.com/name/v1/",
	"xyz":   "https://rdap.centralnic.com/xyz/",
	"site":  "https://rdap.centralnic.com/site/",
	"store": "https://rdap.centralnic.com/store/",
	"tech":  "https://rdap.centralnic.com/tech/",
	"top":   "https://rdap.nic.top/",
	"info":  "https://rdap.identitydigital.services/rdap/",
}

var DefaultWHOISServers = map[string]string{
	"de": "whois.denic.de",
	"fr": "whois.nic.fr",
	"it": "whois.nic.it",
	"ch": "whois.nic.ch",
	"se": "whois.iis.se",
	"pl": "whois.dns.pl",
	"eu": "whois.eu",
	"ca": "whois.cira.ca",
	"au": "whois.auda.org.au",
	"us": "whois.nic.us",
	"co": "whois.nic.co",
	"me": "whois.nic.me",
	"ru": "whois.tcinet.ru",
	"br": "whois.registro.br",
}

const DefaultRDAPBootstrap = "https://rdap.org/"

var restrictedIndicators = []string{
	"not authorised", "not authorized", "access denied",
	"query rate limit exceeded", "too many queries", "access restricted",
}

// Client resolves creation dates over RDAP when the TLD has a known endpoint
// and over WHOIS (TCP/43) when only a WHOIS server is known. TLDs with neither
// go to the RDAP bootstrap service. Each lookup makes exactly one attempt.
type Client struct {
	HTTP          *http.Client
	RDAPEndpoints map[string]string
	WHOISServers  map[string]string
	RDAPBootstrap string
	Telemetry     *telemetry.Registry
	Metrics       *metrics.Metrics
	Dialer        *net.Dialer
	UserAgent     string
}

func NewClient(reg *telemetry.Registry) *Client {
	return &Client{
		HTTP:          &http.Client{Timeout: 15 * time.Second},
		RDAPEndpoints: DefaultRDAPEndpoints,
		WHOISServers:  DefaultWHOISServers,
		RDAPBootstrap: DefaultRDAPBootstrap,
		Telemetry:     reg,
		Dialer:        &net.Dialer{Timeout: 5 * time.Second},
		UserAgent:     "phishscore/1.0",
	}
}

func (c *Client) CreationDates(ctx context.Context, domain string) ([]time.Time, error) {
	tld := getTLD(domain)

	if endpoint, ok := c.RDAPEndpoints[tld]; ok {
		return c.rdapCreationDates(ctx, domain, endpoint, "rdap:"+tld)
	}
	if server, ok := c.WHOISServers[tld]; ok {
		return c.whoisCreationDates(ctx, domain, server, "whois:"+tld)
	}
	return c.rdapCreationDates(ctx, domain, c.RDAPBootstrap, "rdap:bootstrap")
}

type rdapDomain struct {
	ErrorCode int `json:"errorCode"`
	Events    []struct {
		EventAction string `json:"eventAction"`
		EventDate   string `json:"eventDate"`
	} `json:"events"`
}

func (c *Client) rdapCreationDates(ctx context.Context, domain, endpoint, provider string) ([]time.Time, error) {
	if c.Telemetry != nil && c.Telemetry.InCooldown(provider) {
		slog.Info("RDAP provider in cooldown, skipping", "provider", provider)
		return nil, ErrProviderCooldown
	}

	rdapURL := fmt.Sprintf("%s/domain/%s", strings.TrimRight(endpoint, "/"), domain)
	slog.Info("RDAP lookup", "url", rdapURL)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rdapURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, c.fail(provider, fmt.Errorf("rdap request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRDAPBody))
	if err != nil {
		return nil, c.fail(provider, fmt.Errorf("rdap read: %w", err))
	}
	// An unknown domain is an answer, not a provider fault.
	if resp.StatusCode == http.StatusNotFound {
		c.succeed(provider, time.Since(start))
		return nil, fmt.Errorf("rdap: domain not found: %w", ErrNoCreationDate)
	}
	if resp.StatusCode >= 400 {
		return nil, c.fail(provider, fmt.Errorf("rdap: HTTP %d", resp.StatusCode))
	}

	var data rdapDomain
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, c.fail(provider, fmt.Errorf("rdap: invalid JSON: %w", err))
	}
	if data.ErrorCode == http.StatusNotFound {
		c.succeed(provider, time.Since(start))
		return nil, fmt.Errorf("rdap: domain not found: %w", ErrNoCreationDate)
	}
	if data.ErrorCode != 0 {
		return nil, c.fail(provider, fmt.Errorf("rdap: error response %d", data.ErrorCode))
	}
	c.succeed(provider, time.Since(start))

	var dates []time.Time
	for _, ev := range data.Events {
		if !strings.EqualFold(ev.EventAction, "registration") {
			continue
		}
		if t, ok := parseDate(ev.EventDate); ok {
			dates = append(dates, t)
		}
	}
	if len(dates) == 0 {
		return nil, ErrNoCreationDate
	}
	return dates, nil
}

func (c *Client) whoisCreationDates(ctx context.Context, domain, server, provider string) ([]time.Time, error) {
	if c.Telemetry != nil && c.Telemetry.InCooldown(provider) {
		slog.Info("WHOIS provider in cooldown, skipping", "provider", provider)
		return nil, ErrProviderCooldown
	}

	addr := server
	if _, _, err := net.SplitHostPort(server); err != nil {
		addr = net.JoinHostPort(server, whoisPort)
	}
	slog.Info("WHOIS lookup", "server", addr, "domain", domain)

	start := time.Now()
	output, err := c.queryWHOIS(ctx, addr, domain)
	if err != nil {
		return nil, c.fail(provider, err)
	}
	if isRestricted(output) {
		return nil, c.fail(provider, ErrRestricted)
	}
	c.succeed(provider, time.Since(start))

	dates := parseWHOISCreationDates(output)
	if len(dates) == 0 {
		return nil, ErrNoCreationDate
	}
	return dates, nil
}

func (c *Client) queryWHOIS(ctx context.Context, addr, domain string) (string, error) {
	dialer := c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: 5 * time.Second}
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("whois dial: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte(domain + "\r\n")); err != nil {
		return "", fmt.Errorf("whois write: %w", err)
	}
	response, err := io.ReadAll(io.LimitReader(conn, maxWHOISResponse))
	if err != nil && len(response) == 0 {
		return "", fmt.Errorf("whois read: %w", err)
	}
	return string(response), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) fail(provider string, err error) error {
	slog.Warn("Registration lookup failed", "provider", provider, "error", err)
	if c.Telemetry != nil {
		c.Telemetry.RecordFailure(provider, err.Error())
	}
	c.Metrics.LookupFailed(provider)
	return err
}

func (c *Client) succeed(provider string, latency time.Duration) {
	if c.Telemetry != nil {
		c.Telemetry.RecordSuccess(provider, latency)
	}
}

func isRestricted(output string) bool {
	if len(strings.TrimSpace(output)) < 50 {
		return true
	}
	lower := strings.ToLower(output)
	for _, indicator := range restrictedIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func getTLD(domain string) string {
	domain = strings.TrimSuffix(domain, ".")
	if i := strings.LastIndexByte(domain, '.'); i >= 0 {
		return domain[i+1:]
	}
	return domain
}
