// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	SummaryFile     = "summary_reports.csv"
	fileStampLayout = "2006-01-02_15-04-05"
	naValue         = "N/A"
)

var summaryHeader = []string{
	"time", "url", "score", "verdict",
	"domain_age_months", "is_shortened_url", "suspicious_title",
	"suspicious_body", "forms_found", "contains_at_symbol",
	"dots_count", "url_length_long", "uses_https",
	"form_action_external", "url_contains_ip",
}

// FileSink writes a text report, a JSON report and a row in the shared CSV
// summary for every saved report. The directory is created on first save.
type FileSink struct {
	dir string
	mu  sync.Mutex
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (f *FileSink) Dir() string { return f.dir }

func (f *FileSink) Save(_ context.Context, r Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	base := filepath.Join(f.dir, fmt.Sprintf("report_%s_%s", r.Time.Format(fileStampLayout), r.ID.String()[:8]))

	txtPath := base + ".txt"
	if err := os.WriteFile(txtPath, []byte(renderText(r)), 0o644); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	jsonPath := base + ".json"
	payload, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	if err := os.WriteFile(jsonPath, payload, 0o644); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}

	summaryPath := filepath.Join(f.dir, SummaryFile)
	if err := appendSummary(summaryPath, r); err != nil {
		return fmt.Errorf("append summary: %w", err)
	}

	slog.Info("Report saved", "txt", txtPath, "json", jsonPath, "summary", summaryPath)
	return nil
}

func renderText(r Report) string {
	var b strings.Builder
	b.WriteString("Phishing Report\n")
	fmt.Fprintf(&b, "Time: %s\n", r.Time.Format(time.RFC3339))
	fmt.Fprintf(&b, "URL: %s\n", r.URL)
	fmt.Fprintf(&b, "Score: %d\n", r.Score)
	fmt.Fprintf(&b, "Result: %s\n", r.Verdict)
	if r.Partial {
		fmt.Fprintf(&b, "Partial: missing %s\n", strings.Join(r.Missing, ", "))
	}
	b.WriteString("\n")
	row := signalColumns(r)
	for i, name := range summaryHeader[4:] {
		fmt.Fprintf(&b, "%s: %s\n", name, row[i])
	}
	if len(r.TitleTerms) > 0 {
		fmt.Fprintf(&b, "title_terms: %s\n", strings.Join(r.TitleTerms, ", "))
	}
	if len(r.BodyTerms) > 0 {
		fmt.Fprintf(&b, "body_terms: %s\n", strings.Join(r.BodyTerms, ", "))
	}
	if r.KnownPhishing != nil {
		fmt.Fprintf(&b, "known_phishing: %t\n", *r.KnownPhishing)
	}
	return b.String()
}

func appendSummary(path string, r Report) error {
	info, statErr := os.Stat(path)
	needHeader := statErr != nil || info.Size() == 0

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if needHeader {
		if err := w.Write(summaryHeader); err != nil {
			return err
		}
	}
	row := append([]string{
		r.Time.Format(time.RFC3339),
		r.URL,
		strconv.Itoa(r.Score),
		r.Verdict,
	}, signalColumns(r)...)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// signalColumns renders the record in summaryHeader[4:] order. An absent age
// is written as N/A.
func signalColumns(r Report) []string {
	d := r.Data
	age := naValue
	if d.RegistrationAgeMonths != nil {
		age = strconv.Itoa(*d.RegistrationAgeMonths)
	}
	return []string{
		age,
		strconv.FormatBool(d.IsShortenedLink),
		strconv.FormatBool(d.TitleHasSuspiciousWord),
		strconv.FormatBool(d.BodyHasSuspiciousWord),
		strconv.Itoa(d.FormCount),
		strconv.FormatBool(d.ContainsAtSymbol),
		strconv.Itoa(d.DotCount),
		strconv.FormatBool(d.IsLongURL),
		strconv.FormatBool(d.UsesSecureScheme),
		strconv.FormatBool(d.HasExternalFormTarget),
		strconv.FormatBool(d.DomainIsLiteralIP),
	}
}
