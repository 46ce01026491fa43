package main

import (
	"log"
	"os"

	"phishscore/internal/clicmds"
	"phishscore/internal/config"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "phishscore"
	app.Version = config.AppVersion
	app.Usage = "score a URL for phishing indicators"
	app.Commands = []*cli.Command{
		{
			Name:    "interactive",
			Aliases: []string{"i"},
			Usage:   "menu-driven analysis, one URL at a time",
			Action:  clicmds.Interactive,
			Flags:   clicmds.CommonFlags(),
		},
		{
			Name:      "analyze",
			Aliases:   []string{"a"},
			Usage:     "analyze a single URL and exit",
			ArgsUsage: "<url>",
			Action:    clicmds.Analyze,
			Flags:     clicmds.AnalyzeFlags(),
		},
		{
			Name:    "serve",
			Aliases: []string{"s"},
			Usage:   "run the JSON HTTP API",
			Action:  clicmds.Serve,
			Flags:   clicmds.ServeFlags(),
		},
	}
	app.DefaultCommand = "interactive"

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
