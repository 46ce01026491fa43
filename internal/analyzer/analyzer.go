// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package analyzer

import (
	"context"
	"log/slog"
	"time"

	"phishscore/internal/content"
	"phishscore/internal/lexicon"
	"phishscore/internal/metrics"
	"phishscore/internal/models"
	"phishscore/internal/scoring"
	"phishscore/internal/urlcheck"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultAgeTimeout   = 15 * time.Second
)

// ContentSource returns the raw markup of a page.
type ContentSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// AgeResolver returns a domain's registration age in months, or false when it
// cannot be determined.
type AgeResolver interface {
	ResolveAgeMonths(ctx context.Context, domain string) (int, bool)
}

// Reputation reports whether a URL is on a known-phishing list. Its answer is
// shown alongside the score and never changes it.
type Reputation interface {
	Listed(ctx context.Context, url string) (bool, error)
}

type Analyzer struct {
	urls         *urlcheck.Checker
	words        *lexicon.Matcher
	content      ContentSource
	ages         AgeResolver
	reputation   Reputation
	fetchTimeout time.Duration
	ageTimeout   time.Duration
	metrics      *metrics.Metrics
	now          func() time.Time
}

type Option func(*Analyzer)

func WithShorteners(list []string) Option {
	return func(a *Analyzer) { a.urls = urlcheck.New(list) }
}

func WithVocabulary(words []string) Option {
	return func(a *Analyzer) { a.words = lexicon.New(words) }
}

func WithTimeouts(fetch, age time.Duration) Option {
	return func(a *Analyzer) {
		if fetch > 0 {
			a.fetchTimeout = fetch
		}
		if age > 0 {
			a.ageTimeout = age
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

func WithReputation(r Reputation) Option {
	return func(a *Analyzer) { a.reputation = r }
}

func New(src ContentSource, ages AgeResolver, opts ...Option) *Analyzer {
	a := &Analyzer{
		urls:         urlcheck.New(urlcheck.DefaultShorteners),
		words:        lexicon.New(lexicon.DefaultVocabulary),
		content:      src,
		ages:         ages,
		fetchTimeout: DefaultFetchTimeout,
		ageTimeout:   DefaultAgeTimeout,
		now:          time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze scores one scheme-qualified URL. A malformed URL fails before any
// lookup. When the page cannot be fetched, Analyze returns the partial
// analysis (URL structure and registration age only) together with a
// *ContentUnavailableError.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*models.Analysis, error) {
	start := a.now()

	domain, err := urlcheck.ExtractDomain(rawURL)
	if err != nil {
		return nil, err
	}
	slog.Info("Analyzing URL", "url", rawURL, "domain", domain)

	var (
		markup string
		age    int
		ageOK  bool
		listed *bool
		g      errgroup.Group
	)
	g.Go(func() error {
		fctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
		var err error
		markup, err = a.content.Fetch(fctx, rawURL)
		return err
	})
	g.Go(func() error {
		actx, cancel := context.WithTimeout(ctx, a.ageTimeout)
		defer cancel()
		age, ageOK = a.ages.ResolveAgeMonths(actx, domain)
		return nil
	})
	if a.reputation != nil {
		// Capped by the shorter lookup timeout so it never extends the run.
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(ctx, min(a.fetchTimeout, a.ageTimeout))
			defer cancel()
			ok, err := a.reputation.Listed(rctx, rawURL)
			if err != nil {
				slog.Info("Reputation lookup unavailable", "url", rawURL, "error", err)
				return nil
			}
			listed = &ok
			return nil
		})
	}
	fetchErr := g.Wait()

	result := &models.Analysis{
		URL:           rawURL,
		Domain:        domain,
		Record:        a.structuralSignals(rawURL),
		KnownPhishing: listed,
		StartedAt:     start,
	}
	if ageOK {
		result.Record.RegistrationAgeMonths = &age
	} else {
		result.Missing = append(result.Missing, models.MissingRegistrationAge)
	}

	if fetchErr != nil {
		slog.Warn("Failed to fetch page", "url", rawURL, "error", fetchErr)
		result.Partial = true
		result.Missing = append(result.Missing, models.MissingContent)
	} else {
		a.applyContentSignals(result, markup)
	}

	a.finish(result)
	a.metrics.ObserveAnalysis(result.Verdict, result.Score, result.Partial, start)

	if fetchErr != nil {
		return result, &ContentUnavailableError{URL: rawURL, Err: fetchErr}
	}
	return result, nil
}

func (a *Analyzer) structuralSignals(rawURL string) models.SignalRecord {
	return models.SignalRecord{
		IsShortenedLink:   a.urls.IsShortenedLink(rawURL),
		ContainsAtSymbol:  urlcheck.ContainsAtSymbol(rawURL),
		DotCount:          urlcheck.DotCount(rawURL),
		IsLongURL:         urlcheck.IsLongURL(rawURL),
		UsesSecureScheme:  urlcheck.UsesSecureScheme(rawURL),
		DomainIsLiteralIP: urlcheck.DomainIsLiteralIP(rawURL),
	}
}

func (a *Analyzer) applyContentSignals(result *models.Analysis, markup string) {
	title, forms := content.ExtractTitleAndForms(markup)
	result.Title = title
	result.Forms = forms

	result.Record.TitleHasSuspiciousWord = a.words.TitleHasSuspiciousWord(title)
	result.Record.BodyHasSuspiciousWord = a.words.BodyHasSuspiciousWord(markup)
	result.Record.FormCount = len(forms)
	result.Record.HasExternalFormTarget = content.HasExternalFormTarget(forms, result.Domain)

	result.TitleTerms = a.words.Matches(title)
	result.BodyTerms = a.words.Matches(markup)
}

func (a *Analyzer) finish(result *models.Analysis) {
	result.Score = scoring.ComputeScore(result.Record)
	result.Breakdown = scoring.Breakdown(result.Record)
	result.Verdict = scoring.Classify(result.Score).String()
	result.Duration = a.now().Sub(result.StartedAt)

	slog.Info("Analysis complete",
		"url", result.URL,
		"score", result.Score,
		"verdict", result.Verdict,
		"partial", result.Partial,
		"duration_ms", result.Duration.Milliseconds(),
	)
}
