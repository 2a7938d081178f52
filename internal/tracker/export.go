package tracker

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Profile is the serializable evented-profile form of a trace, compatible
// with the flamegraph viewer schema: named frames, "O"/"C" events over
// frame references, and the recorded value range.
type Profile struct {
	Frames     []ProfileFrame   `json:"frames"`
	Events     []ProfileEvent   `json:"events"`
	StartValue uint64           `json:"startValue"`
	EndValue   uint64           `json:"endValue"`
	Captures   []ProfileCapture `json:"captures,omitempty"`
}

// ProfileFrame names one frame reference.
type ProfileFrame struct {
	Name string `json:"name"`
}

// ProfileEvent is one Open ("O") or Close ("C") event.
type ProfileEvent struct {
	Type  string `json:"type"`
	At    uint64 `json:"at"`
	Frame int    `json:"frame"`
}

// ProfileCapture correlates an artifact reference with a trace time.
type ProfileCapture struct {
	Src string `json:"src"`
	At  uint64 `json:"at"`
}

// Profile converts the trace to its exportable form.
func (tr *Trace) Profile() Profile {
	p := Profile{
		Frames:     make([]ProfileFrame, len(tr.frameNames)),
		Events:     make([]ProfileEvent, 0, len(tr.Events)),
		StartValue: 0,
		EndValue:   tr.EndTime(),
	}

	for i, name := range tr.frameNames {
		p.Frames[i] = ProfileFrame{Name: name}
	}

	for _, ev := range tr.Events {
		kind := "O"
		if ev.Kind == Close {
			kind = "C"
		}
		p.Events = append(p.Events, ProfileEvent{Type: kind, At: ev.At, Frame: ev.Frame})
	}

	for _, c := range tr.Captures {
		p.Captures = append(p.Captures, ProfileCapture{Src: c.Ref, At: c.At})
	}

	return p
}

// WriteProfile writes the evented profile as JSON to w.
func (tr *Trace) WriteProfile(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(tr.Profile())
}

// ExportProfile writes the evented profile to a file.
func (tr *Trace) ExportProfile(filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create profile file: %w", err)
	}
	defer f.Close()

	if err := tr.WriteProfile(f); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
