// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package report

import (
	"context"
	"errors"
	"time"

	"phishscore/internal/models"

	"github.com/google/uuid"
)

// Report is the persisted form of one analysis. KnownPhishing is nil when no
// feed was consulted.
type Report struct {
	ID            uuid.UUID           `json:"id"`
	Time          time.Time           `json:"time"`
	URL           string              `json:"url"`
	Domain        string              `json:"domain"`
	Title         string              `json:"title,omitempty"`
	Score         int                 `json:"score"`
	Verdict       string              `json:"verdict"`
	Data          models.SignalRecord `json:"data"`
	TitleTerms    []string            `json:"title_terms,omitempty"`
	BodyTerms     []string            `json:"body_terms,omitempty"`
	KnownPhishing *bool               `json:"known_phishing,omitempty"`
	Partial       bool                `json:"partial"`
	Missing       []string            `json:"missing,omitempty"`
}

func NewReport(a *models.Analysis, at time.Time) Report {
	return Report{
		ID:            uuid.New(),
		Time:          at,
		URL:           a.URL,
		Domain:        a.Domain,
		Title:         a.Title,
		Score:         a.Score,
		Verdict:       a.Verdict,
		Data:          a.Record,
		TitleTerms:    a.TitleTerms,
		BodyTerms:     a.BodyTerms,
		KnownPhishing: a.KnownPhishing,
		Partial:       a.Partial,
		Missing:       a.Missing,
	}
}

// Sink persists reports.
type Sink interface {
	Save(ctx context.Context, r Report) error
}

// MultiSink saves to every sink in order. A failing sink does not stop the
// others; all errors are joined.
type MultiSink []Sink

func (m MultiSink) Save(ctx context.Context, r Report) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
