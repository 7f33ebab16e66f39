package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quantsim/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "quantsim",
		Usage: "Simulate low-precision weight formats on safetensors checkpoints",
		Flags: loggingFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg := LoadConfig()
			applyLoggingConfig(cmd, cfg)
			level := logLevel
			if debug {
				level = "debug"
			}
			log, err := logger.Open(os.Stderr, logFormat, level)
			if err != nil {
				return ctx, cli.Exit(err.Error(), 2)
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			quantizeCmd(),
			analyzeCmd(),
			datatypesCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
