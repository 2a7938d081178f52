package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"banktrace-mcp/internal/analyzer"
	"banktrace-mcp/internal/obslog"
	"banktrace-mcp/internal/regions"
	"banktrace-mcp/internal/symbols"
	"banktrace-mcp/internal/tracker"
)

// tracedRun is one finalized trace plus its replay summary.
type tracedRun struct {
	trace   *tracker.Trace
	summary obslog.Summary
}

// Symbol table and trace caches
var symbolCache = make(map[string]*symbols.Table)
var traceCache = make(map[string]*tracedRun)

func loadSymbols(filePath string) (*symbols.Table, error) {
	if table, ok := symbolCache[filePath]; ok {
		return table, nil
	}
	table, err := symbols.ReadSymFile(filePath, regions.DefaultLayout().BankTop)
	if err != nil {
		return nil, err
	}
	symbolCache[filePath] = table
	return table, nil
}

func main() {
	// Create MCP server
	s := server.NewMCPServer(
		"banktrace-profiler",
		"1.0.0",
		server.WithLogging(),
	)

	// Tool 1: Load Symbols
	loadSymbolsTool := mcp.NewTool("load_symbols",
		mcp.WithDescription("Load a debug symbol file (BANK:ADDR NAME lines) and show the address regions derived from it"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Absolute path to the symbol file"),
		),
	)

	s.AddTool(loadSymbolsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := request.RequireString("file_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		table, err := loadSymbols(filePath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load symbols: %v", err)), nil
		}

		regionMap := regions.Build(table, regions.DefaultLayout())

		var sb strings.Builder
		sb.WriteString("Symbols loaded successfully!\n\n")
		sb.WriteString(fmt.Sprintf("File: %s\n", filePath))
		sb.WriteString(fmt.Sprintf("Code symbols: %d\n", table.Len()))
		sb.WriteString(fmt.Sprintf("Distinct names: %d\n\n", len(table.FrameNames())))

		sb.WriteString("Regions per bank:\n")
		for _, bank := range regionMap.Banks() {
			sb.WriteString(fmt.Sprintf("  bank %d: %d regions\n", bank, len(regionMap.Bank(bank))))
		}

		if table.Len() == 0 {
			sb.WriteString("\nWarning: no usable code symbols. Traces over this table will be empty.\n")
		} else {
			sb.WriteString("\nUse trace_run to reconstruct a call-stack trace over these symbols.\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 2: Trace Run
	traceRunTool := mcp.NewTool("trace_run",
		mcp.WithDescription("Replay an observation log (pc/bank/time per executed instruction) against a symbol file, reconstruct the call stack, and cache the resulting trace for analysis"),
		mcp.WithString("symbols_path",
			mcp.Required(),
			mcp.Description("Path to the debug symbol file"),
		),
		mcp.WithString("log_path",
			mcp.Required(),
			mcp.Description("Path to the observation log to replay"),
		),
	)

	s.AddTool(traceRunTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbolsPath, err := request.RequireString("symbols_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logPath, err := request.RequireString("log_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		table, err := loadSymbols(symbolsPath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load symbols: %v", err)), nil
		}

		layout := regions.DefaultLayout()
		index := regions.NewIndex(regions.Build(table, layout))
		t := tracker.New(index, layout, table.FrameNames())

		summary, err := obslog.ReplayFile(logPath, t)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to replay observations: %v", err)), nil
		}

		trace := t.Finish()
		traceCache[logPath] = &tracedRun{trace: trace, summary: summary}

		result := fmt.Sprintf(`Trace reconstructed successfully!

Log: %s
Symbols: %s
Instructions: %d
Display frames: %d
Captures: %d
Events: %d
End time: %d

Use report_window, trace_statistics, view_stack, detect_issues or export_profile to analyze this trace.
`,
			logPath,
			symbolsPath,
			summary.Instructions,
			summary.Frames,
			summary.Captures,
			len(trace.Events),
			trace.EndTime(),
		)

		if table.Len() == 0 {
			result += "\nWarning: no usable code symbols were loaded; the trace is empty.\n"
		}

		return mcp.NewToolResultText(result), nil
	})

	// Tool 3: Report Window
	reportWindowTool := mcp.NewTool("report_window",
		mcp.WithDescription("Report per-symbol active time within a time window [start, end), sorted by descending duration. This is the most important tool for finding where cycles go."),
		mcp.WithString("log_path",
			mcp.Required(),
			mcp.Description("Path of the traced observation log"),
		),
		mcp.WithNumber("start",
			mcp.Required(),
			mcp.Description("Window start time (inclusive)"),
		),
		mcp.WithNumber("end",
			mcp.Required(),
			mcp.Description("Window end time (exclusive)"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Number of top symbols to return (default: 10)"),
		),
	)

	s.AddTool(reportWindowTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logPath, err := request.RequireString("log_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		start, err := request.RequireFloat("start")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		end, err := request.RequireFloat("end")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		topN := 10
		if n := request.GetFloat("top_n", 10.0); n != 10.0 {
			topN = int(n)
		}

		run, ok := traceCache[logPath]
		if !ok {
			return mcp.NewToolResultError("Trace not found. Use trace_run tool first"), nil
		}

		report := analyzer.ReportWindow(run.trace, uint64(start), uint64(end))

		var sb strings.Builder
		sb.WriteString("🔥 SYMBOL TIME IN WINDOW\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")
		sb.WriteString(fmt.Sprintf("Window: [%d, %d)\n\n", report.Start, report.End))
		sb.WriteString(analyzer.FormatWindowReport(report, topN))

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 4: Trace Statistics
	traceStatisticsTool := mcp.NewTool("trace_statistics",
		mcp.WithDescription("Get comprehensive statistics about a reconstructed trace: event counts, stack depth, occurrences, captures"),
		mcp.WithString("log_path",
			mcp.Required(),
			mcp.Description("Path of the traced observation log"),
		),
	)

	s.AddTool(traceStatisticsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logPath, err := request.RequireString("log_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		run, ok := traceCache[logPath]
		if !ok {
			return mcp.NewToolResultError("Trace not found. Use trace_run tool first"), nil
		}

		stats := analyzer.ComputeStatistics(run.trace)

		var sb strings.Builder
		sb.WriteString("📊 TRACE STATISTICS\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")

		sb.WriteString(fmt.Sprintf("Trace span: %d cycles\n", stats.Span))
		sb.WriteString(fmt.Sprintf("Total events: %d (%d open, %d close)\n", stats.TotalEvents, stats.OpenEvents, stats.CloseEvents))
		sb.WriteString(fmt.Sprintf("Occurrences: %d\n", stats.TotalOccurrences))
		sb.WriteString(fmt.Sprintf("Observed symbols: %d\n\n", stats.ObservedSymbols))

		sb.WriteString("Call Stack Depth:\n")
		sb.WriteString(fmt.Sprintf("  Maximum: %d frames\n\n", stats.MaxStackDepth))

		sb.WriteString(fmt.Sprintf("Average occurrence: %.2f cycles\n", stats.AverageOccurrence))
		sb.WriteString(fmt.Sprintf("Captures: %d\n", stats.Captures))
		sb.WriteString(fmt.Sprintf("Display frames: %d\n", run.summary.Frames))

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 5: View Stack
	viewStackTool := mcp.NewTool("view_stack",
		mcp.WithDescription("View the reconstructed call stack as it was at a specific trace time. Useful for understanding execution flow."),
		mcp.WithString("log_path",
			mcp.Required(),
			mcp.Description("Path of the traced observation log"),
		),
		mcp.WithNumber("at",
			mcp.Required(),
			mcp.Description("Trace time to inspect"),
		),
	)

	s.AddTool(viewStackTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logPath, err := request.RequireString("log_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		at, err := request.RequireFloat("at")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		run, ok := traceCache[logPath]
		if !ok {
			return mcp.NewToolResultError("Trace not found. Use trace_run tool first"), nil
		}

		stack := analyzer.StackAt(run.trace, uint64(at))

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("📞 CALL STACK AT TIME %d\n", uint64(at)))
		sb.WriteString("═══════════════════════════════════════════════════\n\n")
		sb.WriteString(fmt.Sprintf("Stack Depth: %d frames\n\n", len(stack)))

		if len(stack) == 0 {
			sb.WriteString("No live frames (untracked or before first symbol entry).\n")
		} else {
			sb.WriteString("Call Stack (bottom to top):\n\n")
			for _, frame := range stack {
				sb.WriteString(fmt.Sprintf("%d. %s\n", frame.Depth, frame.Symbol))
				sb.WriteString(fmt.Sprintf("   opened at %d\n\n", frame.OpenedAt))
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 6: Detect Issues
	detectIssuesTool := mcp.NewTool("detect_issues",
		mcp.WithDescription("Automatically detect potential problems in the trace using heuristics: deep stacks, dominant symbols, untracked time. A great starting point for analysis."),
		mcp.WithString("log_path",
			mcp.Required(),
			mcp.Description("Path of the traced observation log"),
		),
	)

	s.AddTool(detectIssuesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logPath, err := request.RequireString("log_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		run, ok := traceCache[logPath]
		if !ok {
			return mcp.NewToolResultError("Trace not found. Use trace_run tool first"), nil
		}

		issues := analyzer.DetectIssues(run.trace)

		var sb strings.Builder
		sb.WriteString("⚠️  AUTOMATED TRACE ISSUE DETECTION\n")
		sb.WriteString("═══════════════════════════════════════════════════\n\n")

		if len(issues) == 0 {
			sb.WriteString("✅ No significant issues detected!\n")
		} else {
			for i, issue := range issues {
				sb.WriteString(fmt.Sprintf("%d. [%s/%s] %s\n", i+1, issue.Severity, issue.Category, issue.Description))
				if issue.Symbol != "" {
					sb.WriteString(fmt.Sprintf("   Symbol: %s\n", issue.Symbol))
				}
				if issue.Impact > 0 {
					sb.WriteString(fmt.Sprintf("   Impact: %.2f%% of total time\n", issue.Impact))
				}
				sb.WriteString("\n")
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	})

	// Tool 7: Export Profile
	exportProfileTool := mcp.NewTool("export_profile",
		mcp.WithDescription("Export the finalized trace as an evented-profile JSON file (frames + open/close events) loadable in a flamegraph viewer"),
		mcp.WithString("log_path",
			mcp.Required(),
			mcp.Description("Path of the traced observation log"),
		),
		mcp.WithString("output_path",
			mcp.Required(),
			mcp.Description("Path to write the profile JSON to"),
		),
	)

	s.AddTool(exportProfileTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logPath, err := request.RequireString("log_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		outputPath, err := request.RequireString("output_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		run, ok := traceCache[logPath]
		if !ok {
			return mcp.NewToolResultError("Trace not found. Use trace_run tool first"), nil
		}

		if err := run.trace.ExportProfile(outputPath); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export profile: %v", err)), nil
		}

		result := fmt.Sprintf(`Profile exported successfully!

Output: %s
Frames: %d
Events: %d
Captures: %d
`,
			outputPath,
			len(run.trace.FrameNames()),
			len(run.trace.Events),
			len(run.trace.Captures),
		)

		return mcp.NewToolResultText(result), nil
	})

	// Start the server
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
