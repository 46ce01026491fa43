// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package clicmds

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"phishscore/internal/analyzer"
	"phishscore/internal/config"
	"phishscore/internal/feeds"
	"phishscore/internal/fetch"
	"phishscore/internal/metrics"
	"phishscore/internal/report"
	"phishscore/internal/telemetry"
	"phishscore/internal/whois"

	"github.com/urfave/cli/v2"
)

const (
	registrationCacheSize = 500
	registrationCacheTTL  = 24 * time.Hour
)

// components is everything one command needs, built from config and flags.
type components struct {
	cfg       *config.Config
	analyzer  *analyzer.Analyzer
	sink      report.Sink
	files     *report.FileSink
	db        *report.PostgresSink
	telemetry *telemetry.Registry
	ageCache  *telemetry.TTLCache[[]time.Time]
	metrics   *metrics.Metrics
}

func (c *components) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

func setupLogging(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig reads the environment and applies any flags the user set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("report-dir") {
		cfg.ReportDir = c.String("report-dir")
	}
	if c.IsSet("database-url") {
		cfg.DatabaseURL = c.String("database-url")
	}
	if c.IsSet("fetch-timeout") {
		cfg.FetchTimeout = c.Duration("fetch-timeout")
	}
	if c.IsSet("whois-timeout") {
		cfg.WhoisTimeout = c.Duration("whois-timeout")
	}
	if c.IsSet("shortener") {
		cfg.Shorteners = c.StringSlice("shortener")
	}
	if c.IsSet("word") {
		cfg.Vocabulary = c.StringSlice("word")
	}
	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	return cfg, nil
}

// build wires the analyzer and report sinks. guardPrivate turns on the fetch
// SSRF guard; the config value can force it on.
func build(ctx context.Context, cfg *config.Config, guardPrivate, save bool) (*components, error) {
	comp := &components{
		cfg:       cfg,
		telemetry: telemetry.NewRegistry(),
		ageCache:  telemetry.NewTTLCache[[]time.Time]("registration", registrationCacheSize, registrationCacheTTL),
		metrics:   metrics.New(),
	}

	lookup := whois.NewClient(comp.telemetry)
	lookup.Metrics = comp.metrics
	resolver := whois.NewResolver(lookup, whois.WithCache(comp.ageCache))

	fetcher := fetch.New(cfg.FetchTimeout,
		fetch.WithGuardPrivate(guardPrivate || cfg.SSRFGuard),
		fetch.WithTelemetry(comp.telemetry),
		fetch.WithMetrics(comp.metrics),
	)

	opts := []analyzer.Option{
		analyzer.WithShorteners(cfg.Shorteners),
		analyzer.WithVocabulary(cfg.Vocabulary),
		analyzer.WithTimeouts(cfg.FetchTimeout, cfg.WhoisTimeout),
		analyzer.WithMetrics(comp.metrics),
	}
	if cfg.OpenPhishFeed != "" {
		feed := feeds.NewOpenPhish(cfg.OpenPhishFeed, comp.telemetry)
		feed.Metrics = comp.metrics
		opts = append(opts, analyzer.WithReputation(feed))
	}
	comp.analyzer = analyzer.New(fetcher, resolver, opts...)

	if !save {
		return comp, nil
	}

	comp.files = report.NewFileSink(cfg.ReportDir)
	sinks := report.MultiSink{comp.files}
	if cfg.DatabaseURL != "" {
		db, err := report.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("report database: %w", err)
		}
		comp.db = db
		sinks = append(sinks, db)
	}
	comp.sink = sinks
	return comp, nil
}
