package main

import "github.com/urfave/cli/v3"

var (
	logLevel  string
	logFormat string
	debug     bool
)

// quantFlags are shared by every command that resolves a datatype.
type quantFlags struct {
	datatype  string
	bits      int
	groupSize int
}

func (q *quantFlags) flags(datatypeUsage string) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "datatype",
			Aliases:     []string{"d"},
			Usage:       datatypeUsage,
			Destination: &q.datatype,
		},
	}, q.shapeFlags()...)
}

// shapeFlags are --bits and --group-size without --datatype.
func (q *quantFlags) shapeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "bits",
			Aliases:     []string{"b"},
			Usage:       "bit width of the target format",
			Value:       4,
			Destination: &q.bits,
		},
		&cli.IntFlag{
			Name:        "group-size",
			Aliases:     []string{"g"},
			Usage:       "calibration group: -1 per-tensor, 0 per-channel (default), N per-group of N",
			Destination: &q.groupSize,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
