// Command periodstats computes period-bucketed keyword statistics over a
// collection of dated documents.
//
// Usage:
//
//	periodstats [--config configs/development.yaml] run --keywords "miss, lady/woman"
//	periodstats periods --boundaries "1700 1750 1800"
//	periodstats keywords --keywords "young lady/fair maid"
//	periodstats verify-export out/export.json
//	periodstats reports --limit 10
//	periodstats cache-clear
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

// Exit codes.
const (
	exitFailure    = 1
	exitConfig     = 2
	exitCollection = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "periodstats",
		Usage: "keyword frequency, TF-IDF and sentiment statistics per period of time",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to YAML config file", EnvVars: []string{"PS_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		},
		Commands: []*cli.Command{
			runCommand(),
			periodsCommand(),
			keywordsCommand(),
			verifyExportCommand(),
			reportsCommand(),
			cacheClearCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "periodstats: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrConfiguration):
		return exitConfig
	case errors.Is(err, apperrors.ErrCollectionAccess):
		return exitCollection
	default:
		return exitFailure
	}
}
