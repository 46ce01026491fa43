// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"
)

type HealthState string

const (
	Healthy   HealthState = "healthy"
	Degraded  HealthState = "degraded"
	Unhealthy HealthState = "unhealthy"

	degradedThreshold  = 3
	unhealthyThreshold = 5
	cooldownBase       = 5 * time.Second
	cooldownMax        = 5 * time.Minute
	latencyWindowSize  = 50
)

// ProviderStats is a point-in-time view of one external lookup source
// (an RDAP endpoint, a WHOIS server, the page fetcher).
type ProviderStats struct {
	Name            string      `json:"name"`
	State           HealthState `json:"state"`
	Successes       int64       `json:"successes"`
	Failures        int64       `json:"failures"`
	ConsecFailures  int         `json:"consecutive_failures"`
	LastError       string      `json:"last_error,omitempty"`
	LastErrorTime   *time.Time  `json:"last_error_time,omitempty"`
	LastSuccessTime *time.Time  `json:"last_success_time,omitempty"`
	AvgLatencyMs    float64     `json:"avg_latency_ms"`
	P95LatencyMs    float64     `json:"p95_latency_ms"`
	CooldownUntil   *time.Time  `json:"cooldown_until,omitempty"`
}

type provider struct {
	successes      int64
	failures       int64
	consecFailures int
	lastError      string
	lastErrorTime  time.Time
	lastSuccess    time.Time
	latencies      []float64
	cooldownUntil  time.Time
}

// Registry tracks outcomes per provider and puts a provider into an
// exponential cooldown after repeated consecutive failures.
type Registry struct {
	mu        sync.Mutex
	now       func() time.Time
	providers map[string]*provider
}

func NewRegistry() *Registry {
	return &Registry{
		now:       time.Now,
		providers: make(map[string]*provider),
	}
}

func (r *Registry) get(name string) *provider {
	p, ok := r.providers[name]
	if !ok {
		p = &provider{}
		r.providers[name] = p
	}
	return p
}

func (r *Registry) RecordSuccess(name string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.get(name)
	p.successes++
	p.consecFailures = 0
	p.lastSuccess = r.now()
	p.cooldownUntil = time.Time{}

	p.latencies = append(p.latencies, float64(latency.Microseconds())/1000.0)
	if len(p.latencies) > latencyWindowSize {
		p.latencies = p.latencies[len(p.latencies)-latencyWindowSize:]
	}
}

func (r *Registry) RecordFailure(name, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	p := r.get(name)
	p.failures++
	p.consecFailures++
	p.lastError = errMsg
	p.lastErrorTime = now

	if p.consecFailures >= degradedThreshold {
		backoff := float64(cooldownBase) * math.Pow(2, float64(p.consecFailures-degradedThreshold))
		p.cooldownUntil = now.Add(time.Duration(math.Min(backoff, float64(cooldownMax))))
	}
}

func (r *Registry) InCooldown(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[name]
	if !ok || p.cooldownUntil.IsZero() {
		return false
	}
	return r.now().Before(p.cooldownUntil)
}

func (r *Registry) Stats(name string) ProviderStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(name).stats(name, r.now())
}

// AllStats returns stats for every provider seen so far, sorted by name.
func (r *Registry) AllStats() []ProviderStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make([]ProviderStats, 0, len(r.providers))
	for name, p := range r.providers {
		out = append(out, p.stats(name, now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *provider) stats(name string, now time.Time) ProviderStats {
	s := ProviderStats{
		Name:           name,
		Successes:      p.successes,
		Failures:       p.failures,
		ConsecFailures: p.consecFailures,
		LastError:      p.lastError,
	}
	if !p.lastErrorTime.IsZero() {
		t := p.lastErrorTime
		s.LastErrorTime = &t
	}
	if !p.lastSuccess.IsZero() {
		t := p.lastSuccess
		s.LastSuccessTime = &t
	}
	if now.Before(p.cooldownUntil) {
		t := p.cooldownUntil
		s.CooldownUntil = &t
	}

	switch {
	case p.consecFailures >= unhealthyThreshold:
		s.State = Unhealthy
	case p.consecFailures >= degradedThreshold:
		s.State = Degraded
	default:
		s.State = Healthy
	}

	if n := len(p.latencies); n > 0 {
		sorted := append([]float64(nil), p.latencies...)
		sort.Float64s(sorted)
		sum := 0.0
		for _, v := range sorted {
			sum += v
		}
		s.AvgLatencyMs = sum / float64(n)
		s.P95LatencyMs = sorted[int(float64(n-1)*0.95)]
	}
	return s
}
