package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GenerateTimeline creates a human-readable timeline of a replay
func GenerateTimeline(result *Result) string {
	var sb strings.Builder

	// Header
	sb.WriteString("╔══════════════════════════════════════════════════════════╗\n")
	sb.WriteString(fmt.Sprintf("║  Scenario: %-46s║\n", truncate(result.Scenario.Name, 46)))
	sb.WriteString(fmt.Sprintf("║  Duration: %-46s║\n", fmt.Sprintf("%.1fs (%d ticks)", result.Scenario.Duration, result.Ticks)))
	sb.WriteString("╚══════════════════════════════════════════════════════════╝\n\n")

	for _, frame := range result.Frames {
		event := frame.Event
		if event == "" {
			event = "tick"
		}

		power := "off"
		if frame.Snapshot.On {
			power = "on"
		}

		sb.WriteString(fmt.Sprintf("[%7.2fs] → %-28s %-3s out=%s target=%s mood=%s\n",
			frame.Elapsed,
			truncate(event, 28),
			power,
			frame.Snapshot.Output.Hex(),
			frame.Snapshot.Target.Hex(),
			orDash(frame.Mood),
		))
	}

	if len(result.Checks) > 0 {
		sb.WriteString("\n=== Expectations ===\n")
		for _, check := range result.Checks {
			icon := "✓"
			if !check.Passed {
				icon = "✗"
			}

			label := check.Expectation.Description
			if label == "" {
				label = fmt.Sprintf("at %.2fs", check.Expectation.At)
			}

			sb.WriteString(fmt.Sprintf("  %s %s", icon, label))
			if !check.Passed {
				sb.WriteString(fmt.Sprintf(": %s", check.Reason))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")

	status := "✓ ALL EXPECTATIONS MET"
	if result.FailedCount > 0 {
		status = fmt.Sprintf("✗ %d EXPECTATION(S) FAILED", result.FailedCount)
	}

	sb.WriteString("╔══════════════════════════════════════════════════════════╗\n")
	sb.WriteString("║  SUMMARY                                                 ║\n")
	sb.WriteString(fmt.Sprintf("║  Final:  %-48s║\n", fmt.Sprintf("%s (target %s)", result.Final.Output.Hex(), result.Final.Target.Hex())))
	sb.WriteString(fmt.Sprintf("║  Passed: %-48d║\n", result.PassedCount))
	sb.WriteString(fmt.Sprintf("║  Failed: %-48d║\n", result.FailedCount))
	sb.WriteString(fmt.Sprintf("║  Status: %-48s║\n", status))
	sb.WriteString("╚══════════════════════════════════════════════════════════╝\n")

	return sb.String()
}

// SaveLog writes the session log of a replay as indented JSON
func SaveLog(result *Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(result.Log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session log: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}

	return nil
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
