package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "colorize:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "colorize",
		Usage: "colorize grayscale photos with a remote colorization service",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "upload an image, wait for the result and download it",
				ArgsUsage: "<image>",
				Flags: []cli.Flag{
					baseURLFlag(),
					verboseFlag(),
					&cli.StringFlag{
						Name:  "out",
						Usage: "output file (defaults to colorized_<id>.jpg)",
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "progress queries before giving up (defaults to POLL_MAX_ATTEMPTS)",
					},
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "pause between progress queries (defaults to POLL_INTERVAL)",
					},
					&cli.BoolFlag{
						Name:  "no-download",
						Usage: "print the result URLs without downloading",
					},
				},
				Action: runAction,
			},
			{
				Name:   "health",
				Usage:  "show colorization service health",
				Flags:  []cli.Flag{baseURLFlag(), verboseFlag()},
				Action: healthAction,
			},
			{
				Name:   "models",
				Usage:  "list models offered by the colorization service",
				Flags:  []cli.Flag{baseURLFlag(), verboseFlag()},
				Action: modelsAction,
			},
		},
	}
}

func baseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "base-url",
		Usage: "colorization service URL (defaults to COLORIZE_BASE_URL)",
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log at debug level",
	}
}
