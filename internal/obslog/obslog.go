// Package obslog replays recorded observation logs through a tracker.
//
// An observation log is the file form of the per-instruction signal an
// instruction-stepped emulator delivers live: one line per executed
// instruction, plus frame-boundary and capture-marker lines. Replaying a
// log drives the tracker in the same strict time order as a live run.
package obslog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"banktrace-mcp/internal/tracker"
)

// Summary describes one replayed observation log.
type Summary struct {
	Instructions int
	Frames       int
	Captures     int
	FrameTimes   []uint64 // observation time at each frame boundary
}

// ReplayFile opens an observation log and replays it through the tracker.
func ReplayFile(filePath string, t *tracker.Tracker) (Summary, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to open observation log: %w", err)
	}
	defer f.Close()

	summary, err := Replay(f, t)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to replay %s: %w", filePath, err)
	}
	return summary, nil
}

// Replay reads observation lines from r and feeds them to the tracker in
// order. Lines are one of:
//
//	0xPC BANK TIME    executed instruction (pc hex, bank and time decimal)
//	frame             display frame boundary
//	capture SRC       capture marker for an external artifact
//
// Blank lines and lines starting with '#' are skipped.
func Replay(r io.Reader, t *tracker.Tracker) (Summary, error) {
	var summary Summary

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "frame":
			summary.Frames++
			summary.FrameTimes = append(summary.FrameTimes, t.Now())
			continue
		case "capture":
			if len(fields) < 2 {
				return summary, fmt.Errorf("capture line with no reference: %q", line)
			}
			t.MarkCapture(fields[1])
			summary.Captures++
			continue
		}

		if len(fields) != 3 {
			return summary, fmt.Errorf("malformed observation line: %q", line)
		}
		if !strings.HasPrefix(fields[0], "0x") {
			return summary, fmt.Errorf("invalid pc %q (expected 0x prefix)", fields[0])
		}
		pc, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 16)
		if err != nil {
			return summary, fmt.Errorf("invalid pc %q: %w", fields[0], err)
		}
		bank, err := strconv.Atoi(fields[1])
		if err != nil {
			return summary, fmt.Errorf("invalid bank %q: %w", fields[1], err)
		}
		time, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return summary, fmt.Errorf("invalid time %q: %w", fields[2], err)
		}

		t.Observe(uint16(pc), bank, time)
		summary.Instructions++
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("error reading observation log: %w", err)
	}

	return summary, nil
}
