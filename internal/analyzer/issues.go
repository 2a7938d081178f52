package analyzer

import (
	"fmt"
	"sort"

	"banktrace-mcp/internal/tracker"
)

// Issue is one heuristic finding about a trace.
type Issue struct {
	Severity    string // "Critical", "High", "Medium", "Low"
	Category    string // e.g. "Deep Call Stack", "Dominant Symbol"
	Description string
	Symbol      string
	Impact      float64 // % of total trace time
}

// DetectIssues performs heuristic analysis of a finalized trace and
// returns potential problems sorted by impact.
func DetectIssues(tr *tracker.Trace) []Issue {
	issues := []Issue{}
	stats := ComputeStatistics(tr)

	// deep stacks suggest runaway recursion or a confused unwind
	if stats.MaxStackDepth > 32 {
		issues = append(issues, Issue{
			Severity: "High",
			Category: "Deep Call Stack",
			Description: fmt.Sprintf(
				"Maximum stack depth of %d frames detected. This may indicate deep recursion or mismatched return detection.",
				stats.MaxStackDepth),
		})
	}

	if stats.Span == 0 {
		return issues
	}

	report := ReportWindow(tr, 0, stats.Span)
	for _, sd := range report.Symbols {
		if sd.Percentage > 50.0 {
			issues = append(issues, Issue{
				Severity:    "Critical",
				Category:    "Dominant Symbol",
				Description: fmt.Sprintf("Symbol is active for %.2f%% of the trace", sd.Percentage),
				Symbol:      sd.Symbol,
				Impact:      sd.Percentage,
			})
		} else if sd.Percentage > 25.0 {
			issues = append(issues, Issue{
				Severity:    "High",
				Category:    "Dominant Symbol",
				Description: fmt.Sprintf("Symbol is active for %.2f%% of the trace", sd.Percentage),
				Symbol:      sd.Symbol,
				Impact:      sd.Percentage,
			})
		}
	}

	untrackedPct := float64(report.Untracked) / float64(stats.Span) * 100.0
	if untrackedPct > 25.0 {
		issues = append(issues, Issue{
			Severity: "Medium",
			Category: "Untracked Time",
			Description: fmt.Sprintf(
				"%.2f%% of the trace is covered by no symbol. The symbol file may be incomplete.",
				untrackedPct),
			Impact: untrackedPct,
		})
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Impact > issues[j].Impact
	})

	return issues
}
