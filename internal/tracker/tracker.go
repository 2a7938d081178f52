package tracker

import (
	"fmt"
	"io"
	"strings"

	"banktrace-mcp/internal/regions"
)

// frame is one live activation on the reconstructed call stack. The
// print-state fields belong to the frame itself so they are reset
// structurally when the frame is popped.
type frame struct {
	name           string
	frameRef       int
	start          uint16
	openedAt       uint64
	hasOpenedChild bool
	reported       bool
	depth          int
}

// Tracker reconstructs a symbolic call stack from a stream of per
// instruction (pc, bank, time) observations. There is no explicit call or
// return signal in the stream; entries and exits are inferred from region
// membership alone. The tracker is single-writer and must be driven in
// strict time order.
type Tracker struct {
	index  *regions.Index
	layout regions.Layout
	trace  *Trace

	current  *regions.Region
	stack    []frame
	lastTime uint64

	// CallLog, when set, receives an indented live call tree as frames
	// open children and close.
	CallLog io.Writer
}

// New returns a Tracker recording into a fresh trace over the given frame
// name table.
func New(index *regions.Index, layout regions.Layout, frameNames []string) *Tracker {
	return &Tracker{
		index:  index,
		layout: layout,
		trace:  NewTrace(frameNames),
	}
}

// Trace returns the trace being recorded. Before Finish is called the
// trace is still growing; aggregation over it is valid but open frames
// have no Close yet.
func (t *Tracker) Trace() *Trace {
	return t.trace
}

// Now returns the time of the most recent observation.
func (t *Tracker) Now() uint64 {
	return t.lastTime
}

// Depth returns the number of live frames on the reconstructed stack.
func (t *Tracker) Depth() int {
	return len(t.stack)
}

// MarkCapture records a capture marker at the current observation time.
func (t *Tracker) MarkCapture(ref string) {
	t.trace.MarkCapture(ref, t.lastTime)
}

// Observe processes one executed instruction. It never fails: unresolved
// addresses contribute no stack information and the stack resumes
// transparently when a known region is re-entered.
func (t *Tracker) Observe(pc uint16, bank int, time uint64) {
	t.lastTime = time

	// hardware vector dispatch, not application logic
	if pc < t.layout.VectorTop {
		return
	}

	r := t.index.Lookup(pc, bank)
	if r == nil {
		t.current = nil
		return
	}
	if r == t.current {
		return
	}

	if t.isReturn(r, pc) {
		t.unwindTo(r, time)
	} else {
		// a fresh call: a landing on the entry address, or a mid-region
		// entry with no matching live frame (an interrupt vector or an
		// optimized jump target)
		t.push(r, time)
	}

	t.current = r
}

// isReturn is the re-entry heuristic: a transfer into a symbol with a
// live frame is taken to be a return to that activation, anything else a
// fresh call. There is no ground truth for this in the observation
// stream; a recursive call re-entering a live symbol at its entry address
// is indistinguishable from a return to it and is read as a return. The
// heuristic is isolated here so an alternate can be swapped in without
// touching the transition rules.
func (t *Tracker) isReturn(r *regions.Region, pc uint16) bool {
	return t.onStack(r)
}

func (t *Tracker) onStack(r *regions.Region) bool {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i].name == r.Name {
			return true
		}
	}
	return false
}

func (t *Tracker) push(r *regions.Region, time uint64) {
	if len(t.stack) > 0 {
		t.stack[len(t.stack)-1].hasOpenedChild = true
		t.logAncestors()
	}
	t.stack = append(t.stack, frame{
		name:     r.Name,
		frameRef: r.Frame,
		start:    r.Start,
		openedAt: time,
		depth:    len(t.stack),
	})
	t.trace.RecordOpen(r.Frame, time)
}

// unwindTo pops and closes every frame above the topmost live activation
// of r's symbol, leaving that activation as the new top. Recursive
// activations are matched last-opened-first-closed.
func (t *Tracker) unwindTo(r *regions.Region, time uint64) {
	for len(t.stack) > 0 {
		top := t.stack[len(t.stack)-1]
		if top.name == r.Name {
			return
		}
		t.pop(time)
	}
}

func (t *Tracker) pop(time uint64) {
	if len(t.stack) == 0 {
		return
	}
	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	t.trace.RecordClose(top.frameRef, time)

	// interior frames were already logged when their first child opened
	if t.CallLog != nil && !top.hasOpenedChild {
		fmt.Fprintf(t.CallLog, "%s%s (%d)\n",
			strings.Repeat("  ", top.depth), top.name, time-top.openedAt)
	}
}

// logAncestors prints any not-yet-reported live frames, bottom first, so
// the call log shows a parent before its first child.
func (t *Tracker) logAncestors() {
	if t.CallLog == nil {
		return
	}
	for i := range t.stack {
		f := &t.stack[i]
		if !f.reported {
			fmt.Fprintf(t.CallLog, "%s%s\n", strings.Repeat("  ", f.depth), f.name)
			f.reported = true
		}
	}
}

// Finish force-closes any frames still open at the final observation time
// so every Open has a matching Close, finalizes the trace and returns it.
func (t *Tracker) Finish() *Trace {
	for len(t.stack) > 0 {
		t.pop(t.lastTime)
	}
	t.current = nil
	t.trace.Finalize(t.lastTime)
	return t.trace
}
