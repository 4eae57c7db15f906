package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

/******************************************************************************

This file is the entry point for the bwtgrep command line utility: a
substring search tool over a pre-built run-length-encoded BWT ("RLB") of a
bracket-delimited record store.

Initial argparsing and app definition is done entirely through
"github.com/urfave/cli/v2". bwtgrep's app is defined via the &cli.App{}
struct in application(), separated from main so tests can spoof its
Reader/Writer and call app.Run directly.

******************************************************************************/

func main() {
	run(os.Args)
}

func run(args []string) {
	app := application()
	if err := app.Run(args); err != nil {
		log.Fatal(err)
	}
}

func application() *cli.App {
	return &cli.App{
		Name:  "bwtgrep",
		Usage: "search a run-length-encoded BWT record store for a pattern",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Value: 0,
				Usage: "concurrent record-extraction workers (0 selects the default)",
			},
			&cli.BoolFlag{
				Name:  "concurrent",
				Usage: "dispatch per-match record extraction across a worker pool",
			},
			&cli.BoolFlag{
				Name:  "count",
				Usage: "print only the number of matches, not the matched records",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "print cache hit/miss statistics to stderr after searching",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "disable the positional run cache",
			},
		},
		ArgsUsage: "<rlb-path> <index-path> <pattern>",
		Action:    searchCommand,
	}
}
