package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/saaga0h/jeeves-moodlight/internal/scenario"
)

func main() {
	scenarioPath := pflag.String("scenario", "", "Path to YAML scenario file (required)")
	everyTick := pflag.Bool("every-tick", false, "Print every tick, not only ticks with input")
	logDir := pflag.String("log-dir", "", "Directory to write the session log of the replay to")
	logLevel := pflag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pflag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --scenario is required\n")
		pflag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Loading scenario", "path", *scenarioPath)
	scen, err := scenario.LoadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	result, err := scenario.NewRunner(logger, *everyTick).Run(scen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(scenario.GenerateTimeline(result))

	if *logDir != "" {
		name := strings.TrimSuffix(filepath.Base(*scenarioPath), filepath.Ext(*scenarioPath))
		logPath := filepath.Join(*logDir, name+".json")
		if err := scenario.SaveLog(result, logPath); err != nil {
			logger.Warn("Failed to save session log", "error", err)
		} else {
			logger.Info("Session log saved", "path", logPath)
		}
	}

	if !result.Passed {
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
