package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"banktrace-mcp/internal/tracker"
)

// SymbolDuration is the summed time one symbol spent on top of the stack
// within a window. Recursive activations of the same symbol are merged
// under one name.
type SymbolDuration struct {
	Symbol      string
	Duration    uint64
	Percentage  float64 // share of the window span
	Occurrences int
}

// WindowReport is the per-symbol cost breakdown for one time window.
type WindowReport struct {
	Start     uint64
	End       uint64
	Symbols   []SymbolDuration
	Untracked uint64 // window time attributed to no activation
}

// ReportWindow computes the active duration of every symbol within
// [start, end), sorted by descending duration. Time is attributed to the
// activation on top of the stack, so per-symbol durations partition the
// tracked part of the window. It is a pure function of the recorded
// sequence and the bounds: it never mutates the trace and can be re-run
// for arbitrary windows.
func ReportWindow(tr *tracker.Trace, start, end uint64) WindowReport {
	report := WindowReport{Start: start, End: end}
	if end <= start {
		return report
	}

	byName := make(map[string]*SymbolDuration)
	var covered uint64

	for frameRef, d := range selfTimes(tr, start, end) {
		name := tr.FrameName(frameRef)
		sd, ok := byName[name]
		if !ok {
			sd = &SymbolDuration{Symbol: name}
			byName[name] = sd
		}
		sd.Duration += d
		covered += d
	}

	for _, occ := range occurrences(tr) {
		if overlap(occ.OpenAt, occ.CloseAt, start, end) == 0 {
			continue
		}
		if sd, ok := byName[tr.FrameName(occ.Frame)]; ok {
			sd.Occurrences++
		}
	}

	span := end - start
	report.Symbols = make([]SymbolDuration, 0, len(byName))
	for _, sd := range byName {
		sd.Percentage = float64(sd.Duration) / float64(span) * 100.0
		report.Symbols = append(report.Symbols, *sd)
	}

	sort.Slice(report.Symbols, func(i, j int) bool {
		if report.Symbols[i].Duration != report.Symbols[j].Duration {
			return report.Symbols[i].Duration > report.Symbols[j].Duration
		}
		return report.Symbols[i].Symbol < report.Symbols[j].Symbol
	})

	if covered < span {
		report.Untracked = span - covered
	}

	return report
}

// FormatWindowReport returns a human-readable rendering of a window
// report, truncated to topN symbols (0 for all).
func FormatWindowReport(report WindowReport, topN int) string {
	var sb strings.Builder

	symbols := report.Symbols
	if topN > 0 && topN < len(symbols) {
		symbols = symbols[:topN]
	}

	if len(symbols) == 0 {
		sb.WriteString("No symbol activity in this window.\n")
	}

	for i, sd := range symbols {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, sd.Symbol))
		sb.WriteString(fmt.Sprintf("   Time: %d cycles (%.2f%%)\n", sd.Duration, sd.Percentage))
		sb.WriteString(fmt.Sprintf("   Occurrences: %d\n", sd.Occurrences))

		barLength := int(sd.Percentage / 2)
		if barLength > 50 {
			barLength = 50
		}
		sb.WriteString("   ")
		sb.WriteString(strings.Repeat("█", barLength))
		sb.WriteString("\n\n")
	}

	if report.Untracked > 0 {
		span := report.End - report.Start
		pct := float64(report.Untracked) / float64(span) * 100.0
		sb.WriteString(fmt.Sprintf("Untracked: %d cycles (%.2f%%)\n", report.Untracked, pct))
	}

	return sb.String()
}
