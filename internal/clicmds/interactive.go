// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package clicmds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"phishscore/internal/analyzer"
	"phishscore/internal/models"
	"phishscore/internal/report"
	"phishscore/internal/urlcheck"

	"github.com/urfave/cli/v2"
)

// URLAnalyzer is satisfied by *analyzer.Analyzer.
type URLAnalyzer interface {
	Analyze(ctx context.Context, rawURL string) (*models.Analysis, error)
}

func Interactive(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	comp, err := build(c.Context, cfg, false, !c.Bool("no-save"))
	if err != nil {
		return err
	}
	defer comp.Close()

	m := &menu{
		in:       bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
		analyzer: comp.analyzer,
		sink:     comp.sink,
		now:      time.Now,
	}
	return m.run(c.Context)
}

type menu struct {
	in       *bufio.Scanner
	out      io.Writer
	analyzer URLAnalyzer
	sink     report.Sink
	now      func() time.Time
}

// run loops until the operator chooses exit or input ends.
func (m *menu) run(ctx context.Context) error {
	fmt.Fprintln(m.out, "\nWelcome to your Cybersecurity Sidekick")
	for {
		printBanner(m.out)
		fmt.Fprintln(m.out, "Menu:")
		fmt.Fprintln(m.out, "1  Analyze a Website URL")
		fmt.Fprintln(m.out, "2  Exit")
		fmt.Fprintln(m.out)

		choice, ok := m.prompt("Enter your choice: ")
		if !ok {
			return m.in.Err()
		}

		switch choice {
		case "1":
			raw, ok := m.prompt("Enter the URL to analyze: ")
			if !ok {
				return m.in.Err()
			}
			m.analyzeOne(ctx, raw)
		case "2":
			fmt.Fprintln(m.out, "Goodbye! Stay safe online.")
			return nil
		default:
			fmt.Fprintln(m.out, "[!] Invalid input. Please enter 1 or 2 only.")
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (m *menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *menu) analyzeOne(ctx context.Context, raw string) {
	target, err := urlcheck.Normalize(raw)
	if err != nil {
		fmt.Fprintln(m.out, "[!] You didn't type anything. Please try again.")
		return
	}

	fmt.Fprintln(m.out, "\nStarting analysis...")
	result, err := m.analyzer.Analyze(ctx, target)
	switch {
	case errors.Is(err, analyzer.ErrMalformedURL):
		fmt.Fprintf(m.out, "[!] %q is not a valid URL.\n", target)
		return
	case err != nil && result == nil:
		fmt.Fprintf(m.out, "[!] Analysis failed: %v\n", err)
		return
	}

	printAnalysis(m.out, result)
	m.save(ctx, result)
}

func (m *menu) save(ctx context.Context, result *models.Analysis) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Save(ctx, report.NewReport(result, m.now())); err != nil {
		fmt.Fprintf(m.out, "[!] Error saving report: %v\n", err)
		return
	}
	fmt.Fprintln(m.out, "Report saved in TXT, JSON, and CSV formats.")
}
