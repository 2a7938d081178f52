package analyzer

import (
	"banktrace-mcp/internal/tracker"
)

// TraceStatistics contains comprehensive statistics about a trace.
type TraceStatistics struct {
	TotalEvents       int
	OpenEvents        int
	CloseEvents       int
	TotalOccurrences  int
	ObservedSymbols   int
	MaxStackDepth     int
	Span              uint64
	Captures          int
	AverageOccurrence float64
}

// ComputeStatistics replays the event sequence and derives summary
// statistics for the whole trace.
func ComputeStatistics(tr *tracker.Trace) TraceStatistics {
	stats := TraceStatistics{
		TotalEvents: len(tr.Events),
		Span:        tr.EndTime(),
		Captures:    len(tr.Captures),
	}

	observed := make(map[int]bool)
	depth := 0
	for _, ev := range tr.Events {
		switch ev.Kind {
		case tracker.Open:
			stats.OpenEvents++
			observed[ev.Frame] = true
			depth++
			if depth > stats.MaxStackDepth {
				stats.MaxStackDepth = depth
			}
		case tracker.Close:
			stats.CloseEvents++
			if depth > 0 {
				depth--
			}
		}
	}
	stats.ObservedSymbols = len(observed)

	var totalDuration uint64
	end := tr.EndTime()
	for _, occ := range occurrences(tr) {
		stats.TotalOccurrences++
		closeAt := occ.CloseAt
		if closeAt > end {
			closeAt = end
		}
		if closeAt > occ.OpenAt {
			totalDuration += closeAt - occ.OpenAt
		}
	}
	if stats.TotalOccurrences > 0 {
		stats.AverageOccurrence = float64(totalDuration) / float64(stats.TotalOccurrences)
	}

	return stats
}

// LiveFrame is one live activation in a reconstructed stack snapshot.
type LiveFrame struct {
	Symbol   string
	OpenedAt uint64
	Depth    int
}

// StackAt replays events up to and including time at and returns the call
// stack live at that moment, bottom first.
func StackAt(tr *tracker.Trace, at uint64) []LiveFrame {
	var stack []LiveFrame
	for _, ev := range tr.Events {
		if ev.At > at {
			break
		}
		switch ev.Kind {
		case tracker.Open:
			stack = append(stack, LiveFrame{
				Symbol:   tr.FrameName(ev.Frame),
				OpenedAt: ev.At,
				Depth:    len(stack),
			})
		case tracker.Close:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack
}
