// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package whois

import (
	"context"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"phishscore/internal/telemetry"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

const daysPerMonth = 30

// Resolver turns a domain into a registration age in months. It never returns
// an error: an unresolvable age is reported as absent.
type Resolver struct {
	lookup Lookup
	cache  *telemetry.TTLCache[[]time.Time]
	now    func() time.Time
}

type Option func(*Resolver)

func WithCache(c *telemetry.TTLCache[[]time.Time]) Option {
	return func(r *Resolver) { r.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{lookup: lookup, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ResolveAgeMonths looks up the registrable domain once and converts the first
// listed creation date to whole 30-day months.
func (r *Resolver) ResolveAgeMonths(ctx context.Context, domain string) (int, bool) {
	name, ok := RegistrableDomain(domain)
	if !ok {
		return 0, false
	}

	dates, cached := r.cachedDates(name)
	if !cached {
		var err error
		dates, err = r.lookup.CreationDates(ctx, name)
		if err != nil {
			slog.Info("Registration age unavailable", "domain", name, "error", err)
			return 0, false
		}
		if len(dates) == 0 {
			return 0, false
		}
		if r.cache != nil {
			r.cache.Set(name, dates)
		}
	}

	return MonthsSince(dates[0], r.now()), true
}

func (r *Resolver) cachedDates(name string) ([]time.Time, bool) {
	if r.cache == nil {
		return nil, false
	}
	dates, ok := r.cache.Get(name)
	return dates, ok && len(dates) > 0
}

// MonthsSince returns floor(days/30) where days is the number of whole days
// between created and now. Creation dates in the future count as zero.
func MonthsSince(created, now time.Time) int {
	elapsed := now.Sub(created)
	if elapsed <= 0 {
		return 0
	}
	days := int(elapsed / (24 * time.Hour))
	return days / daysPerMonth
}

// RegistrableDomain maps a host to the name a registry knows about
// (eTLD+1, ASCII form). IP literals and bare public suffixes are rejected.
func RegistrableDomain(domain string) (string, bool) {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return "", false
	}
	if _, err := netip.ParseAddr(domain); err == nil {
		return "", false
	}

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		ascii = domain
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		if strings.Contains(ascii, ".") {
			return ascii, true
		}
		return "", false
	}
	return etld1, true
}
