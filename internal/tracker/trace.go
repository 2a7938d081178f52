package tracker

// EventKind distinguishes the two trace event types.
type EventKind byte

// Trace event kinds. An occurrence of a symbol on the call stack is
// bracketed by one Open and one Close.
const (
	Open EventKind = iota
	Close
)

// Event is one Open or Close in the recorded timeline. Frame is the
// symbol's stable frame index from the symbol table.
type Event struct {
	Kind  EventKind
	At    uint64
	Frame int
}

// Capture correlates an external artifact (a screenshot path, typically)
// with a point in trace time.
type Capture struct {
	Ref string
	At  uint64
}

// Trace is the recorded timeline: an append-only sequence of Open/Close
// events plus capture markers. Events are never reordered after insertion;
// insertion order is time order for all downstream aggregation.
type Trace struct {
	Events   []Event
	Captures []Capture

	frameNames []string
	endTime    uint64
	finalized  bool
}

// NewTrace returns an empty trace over the given frame-index name table.
func NewTrace(frameNames []string) *Trace {
	return &Trace{frameNames: frameNames}
}

// FrameNames returns the symbol name table, indexed by frame reference.
func (tr *Trace) FrameNames() []string {
	return tr.frameNames
}

// FrameName returns the symbol name for a frame reference.
func (tr *Trace) FrameName(frame int) string {
	if frame < 0 || frame >= len(tr.frameNames) {
		return "?"
	}
	return tr.frameNames[frame]
}

// EndTime returns the time the trace was finalized at, or the time of the
// last recorded event for a trace still being written.
func (tr *Trace) EndTime() uint64 {
	if tr.finalized || len(tr.Events) == 0 {
		return tr.endTime
	}
	return tr.Events[len(tr.Events)-1].At
}

// Finalized reports whether the trace has been closed off.
func (tr *Trace) Finalized() bool {
	return tr.finalized
}

// MarkCapture appends a capture marker at the given time.
func (tr *Trace) MarkCapture(ref string, at uint64) {
	tr.Captures = append(tr.Captures, Capture{Ref: ref, At: at})
}

// RecordOpen appends an Open event for a frame reference. Events must be
// recorded in non-decreasing time order; the recorder never reorders.
func (tr *Trace) RecordOpen(frame int, at uint64) {
	tr.Events = append(tr.Events, Event{Kind: Open, At: at, Frame: frame})
}

// RecordClose appends a Close event for a frame reference. The close is
// matched downstream to the most recent unmatched Open of the same frame.
func (tr *Trace) RecordClose(frame int, at uint64) {
	tr.Events = append(tr.Events, Event{Kind: Close, At: at, Frame: frame})
}

// Finalize closes off the trace at the given end time.
func (tr *Trace) Finalize(at uint64) {
	tr.endTime = at
	tr.finalized = true
}
