// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"phishscore/internal/feeds"
	"phishscore/internal/lexicon"
	"phishscore/internal/urlcheck"

	"github.com/joho/godotenv"
)

const AppVersion = "1.4.0"

// Config holds process settings. OpenPhishFeed is empty when the feed check
// is disabled.
type Config struct {
	ReportDir     string
	DatabaseURL   string
	Port          string
	AppVersion    string
	FetchTimeout  time.Duration
	WhoisTimeout  time.Duration
	Vocabulary    []string
	Shorteners    []string
	SSRFGuard     bool
	LogLevel      slog.Level
	OpenPhishFeed string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		ReportDir:   envOr("PHISH_REPORT_DIR", "reports"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        envOr("PORT", "5000"),
		AppVersion:  AppVersion,
	}

	var err error
	if cfg.FetchTimeout, err = durationEnv("PHISH_FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.WhoisTimeout, err = durationEnv("PHISH_WHOIS_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Vocabulary, err = listEnv("PHISH_VOCABULARY", lexicon.DefaultVocabulary); err != nil {
		return nil, err
	}
	if cfg.Shorteners, err = listEnv("PHISH_SHORTENERS", urlcheck.DefaultShorteners); err != nil {
		return nil, err
	}
	if v := os.Getenv("PHISH_SSRF_GUARD"); v != "" {
		if cfg.SSRFGuard, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("PHISH_SSRF_GUARD: %w", err)
		}
	}
	switch v := os.Getenv("PHISH_OPENPHISH_FEED"); strings.ToLower(v) {
	case "":
		cfg.OpenPhishFeed = feeds.OpenPhishFeedURL
	case "off", "false", "0":
		cfg.OpenPhishFeed = ""
	default:
		cfg.OpenPhishFeed = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

// listEnv reads KEY as a comma separated list, or KEY_FILE as a file with one
// entry per line. KEY wins when both are set.
func listEnv(key string, fallback []string) ([]string, error) {
	if v := os.Getenv(key); v != "" {
		return splitList(v), nil
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		list, err := ReadListFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s_FILE: %w", key, err)
		}
		return list, nil
	}
	return append([]string(nil), fallback...), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ReadListFile reads one entry per line. Blank lines and lines starting with
// # are skipped.
func ReadListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s contains no entries", path)
	}
	return out, nil
}
