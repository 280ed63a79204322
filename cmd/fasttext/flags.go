package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/fbotkashower/fastText/internal/logger"
)

var (
	dim           int64
	inputSize     int64
	classes       int64
	lossName      string
	negatives     int64
	normalizeGrad bool
	learningRate  float64
	lrFloor       float64
	seed          int64
	threads       int64
	logLevel      string
	logFormat     string
	debug         bool
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "dim",
			Aliases:     []string{"d"},
			Usage:       "embedding dimension",
			Value:       64,
			Destination: &dim,
		},
		&cli.Int64Flag{
			Name:        "input-size",
			Aliases:     []string{"buckets"},
			Usage:       "number of input embedding rows",
			Value:       100_000,
			Destination: &inputSize,
		},
		&cli.Int64Flag{
			Name:        "classes",
			Usage:       "number of output classes",
			Value:       1_000,
			Destination: &classes,
		},
		&cli.StringFlag{
			Name:        "loss",
			Usage:       "loss mode (ns, hs, softmax)",
			Value:       "ns",
			Destination: &lossName,
		},
		&cli.Int64Flag{
			Name:        "neg",
			Usage:       "negative samples per example (ns loss)",
			Value:       5,
			Destination: &negatives,
		},
		&cli.BoolFlag{
			Name:        "normalize-grad",
			Usage:       "divide the input gradient by the feature count",
			Value:       true,
			Destination: &normalizeGrad,
		},
		&cli.Float64Flag{
			Name:        "lr",
			Usage:       "initial learning rate",
			Value:       0.05,
			Destination: &learningRate,
		},
		&cli.Float64Flag{
			Name:        "lr-floor",
			Usage:       "learning rate never decays below this",
			Value:       1e-6,
			Destination: &lrFloor,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for weight init and example streams",
			Value:       42,
			Destination: &seed,
		},
		&cli.Int64Flag{
			Name:        "threads",
			Aliases:     []string{"j"},
			Usage:       "trainer goroutines (0 = all CPUs)",
			Value:       0,
			Destination: &threads,
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

// commandLogger builds the logger the logging flags describe. Commands
// call it once at the top of their Action.
func commandLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	default:
		return logger.Pretty(os.Stderr, level)
	}
}
