package clicmds

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"phishscore/internal/analyzer"
	"phishscore/internal/report"
	"phishscore/internal/scoring"
	"phishscore/internal/urlcheck"

	"github.com/urfave/cli/v2"
)

// Exit codes for the one-shot command follow the verdict so scripts can
// branch on them.
const (
	exitSafe        = 0
	exitSuspicious  = 1
	exitPhishing    = 2
	exitInputError  = 3
	exitUnavailable = 4
)

func Analyze(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: phishscore analyze [flags] <url>", exitInputError)
	}

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

	return analyzeOnce(c, comp.analyzer, comp.sink, c.App.Writer, c.Bool("json"))
}

func analyzeOnce(c *cli.Context, a URLAnalyzer, sink report.Sink, out io.Writer, asJSON bool) error {
	target, err := urlcheck.Normalize(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}

	result, err := a.Analyze(c.Context, target)
	if errors.Is(err, analyzer.ErrMalformedURL) {
		return cli.Exit(err.Error(), exitInputError)
	}
	if err != nil && result == nil {
		return cli.Exit(err.Error(), exitUnavailable)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
	} else {
		printAnalysis(out, result)
	}

	if sink != nil {
		r := report.NewReport(result, time.Now())
		if saveErr := sink.Save(c.Context, r); saveErr != nil {
			fmt.Fprintf(c.App.ErrWriter, "[!] Error saving report: %v\n", saveErr)
		}
	}

	if err != nil {
		return cli.Exit(err.Error(), exitUnavailable)
	}
	switch scoring.Verdict(result.Verdict) {
	case scoring.VerdictPhishing:
		return cli.Exit("", exitPhishing)
	case scoring.VerdictSuspicious:
		return cli.Exit("", exitSuspicious)
	}
	return nil
}
