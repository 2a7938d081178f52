package tracker

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestProfileExport(t *testing.T) {
	tr := NewTrace([]string{"main", "helper"})
	tr.RecordOpen(0, 0)
	tr.RecordOpen(1, 10)
	tr.RecordClose(1, 20)
	tr.RecordClose(0, 20)
	tr.MarkCapture("shot-1.png", 15)
	tr.Finalize(20)

	p := tr.Profile()

	if len(p.Frames) != 2 || p.Frames[0].Name != "main" || p.Frames[1].Name != "helper" {
		t.Fatalf("unexpected frames: %+v", p.Frames)
	}
	if p.StartValue != 0 || p.EndValue != 20 {
		t.Errorf("unexpected value range: [%d, %d]", p.StartValue, p.EndValue)
	}

	want := []ProfileEvent{
		{Type: "O", At: 0, Frame: 0},
		{Type: "O", At: 10, Frame: 1},
		{Type: "C", At: 20, Frame: 1},
		{Type: "C", At: 20, Frame: 0},
	}
	if len(p.Events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(p.Events))
	}
	for i := range want {
		if p.Events[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, p.Events[i], want[i])
		}
	}

	if len(p.Captures) != 1 || p.Captures[0] != (ProfileCapture{Src: "shot-1.png", At: 15}) {
		t.Errorf("unexpected captures: %+v", p.Captures)
	}
}

func TestWriteProfileJSON(t *testing.T) {
	tr := NewTrace([]string{"main"})
	tr.RecordOpen(0, 0)
	tr.RecordClose(0, 5)
	tr.Finalize(5)

	var buf bytes.Buffer
	if err := tr.WriteProfile(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("profile is not valid JSON: %v", err)
	}
	for _, key := range []string{"frames", "events", "startValue", "endValue"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("profile JSON missing %q", key)
		}
	}
	if _, ok := decoded["captures"]; ok {
		t.Error("captures must be omitted when empty")
	}
}
