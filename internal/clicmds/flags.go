package clicmds

import (
	"github.com/urfave/cli/v2"
)

// Flag values override the environment configuration only when set.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "report-dir",
			Aliases: []string{"o"},
			Usage:   "directory for TXT/JSON reports and the CSV summary",
		},
		&cli.StringFlag{
			Name:  "database-url",
			Usage: "also store reports in Postgres",
		},
		&cli.DurationFlag{
			Name:  "fetch-timeout",
			Usage: "page download timeout",
		},
		&cli.DurationFlag{
			Name:  "whois-timeout",
			Usage: "registration lookup timeout",
		},
		&cli.StringSliceFlag{
			Name:  "shortener",
			Usage: "link shortener host (repeatable, replaces the default list)",
		},
		&cli.StringSliceFlag{
			Name:  "word",
			Usage: "suspicious vocabulary term (repeatable, replaces the default list)",
		},
		&cli.BoolFlag{
			Name:  "no-save",
			Usage: "do not write reports",
		},
	}
}

func AnalyzeFlags() []cli.Flag {
	return append(CommonFlags(),
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the analysis as JSON",
		},
	)
}

func ServeFlags() []cli.Flag {
	return append(CommonFlags(),
		&cli.StringFlag{
			Name:  "port",
			Usage: "listen port",
		},
		&cli.IntFlag{
			Name:  "rate",
			Usage: "analyze requests allowed per client per minute",
			Value: 8,
		},
	)
}
