package analyzer

import (
	"math"

	"banktrace-mcp/internal/tracker"
)

// occurrence is one reconstructed activation interval: [OpenAt, CloseAt).
// An activation never closed in the recorded sequence has CloseAt of
// MaxUint64 and is clamped by whichever window it is intersected with.
type occurrence struct {
	Frame   int
	OpenAt  uint64
	CloseAt uint64
}

// occurrences replays the event sequence and rebuilds activation
// intervals. Close events are matched to the most recent unmatched Open
// of the same frame reference (stack discipline), which keeps nested
// recursive activations of one symbol separate.
func occurrences(tr *tracker.Trace) []occurrence {
	var out []occurrence
	live := make(map[int][]uint64)

	for _, ev := range tr.Events {
		switch ev.Kind {
		case tracker.Open:
			live[ev.Frame] = append(live[ev.Frame], ev.At)
		case tracker.Close:
			stack := live[ev.Frame]
			if len(stack) == 0 {
				// close with no matching open; ignore
				continue
			}
			openAt := stack[len(stack)-1]
			live[ev.Frame] = stack[:len(stack)-1]
			out = append(out, occurrence{
				Frame:   ev.Frame,
				OpenAt:  openAt,
				CloseAt: ev.At,
			})
		}
	}

	for frameRef, stack := range live {
		for _, openAt := range stack {
			out = append(out, occurrence{
				Frame:   frameRef,
				OpenAt:  openAt,
				CloseAt: math.MaxUint64,
			})
		}
	}

	return out
}

// selfTimes replays the event sequence and attributes each segment of
// time between events to the activation on top of the stack at that
// moment, summed per frame reference and clipped to [start, end). The
// final top-of-stack activation is clamped to end.
func selfTimes(tr *tracker.Trace, start, end uint64) map[int]uint64 {
	out := make(map[int]uint64)
	var stack []int
	var cursor uint64

	attribute := func(from, to uint64) {
		if len(stack) == 0 {
			return
		}
		if d := overlap(from, to, start, end); d > 0 {
			out[stack[len(stack)-1]] += d
		}
	}

	for _, ev := range tr.Events {
		attribute(cursor, ev.At)
		cursor = ev.At

		switch ev.Kind {
		case tracker.Open:
			stack = append(stack, ev.Frame)
		case tracker.Close:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	attribute(cursor, math.MaxUint64)

	return out
}

// overlap returns the length of the intersection of [openAt, closeAt) and
// [start, end).
func overlap(openAt, closeAt, start, end uint64) uint64 {
	lo := openAt
	if start > lo {
		lo = start
	}
	hi := closeAt
	if end < hi {
		hi = end
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
