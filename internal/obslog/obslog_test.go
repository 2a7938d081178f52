package obslog

import (
	"strings"
	"testing"

	"banktrace-mcp/internal/regions"
	"banktrace-mcp/internal/symbols"
	"banktrace-mcp/internal/tracker"
)

func newTestTracker() *tracker.Tracker {
	table := symbols.NewTable([]symbols.Symbol{
		{Name: "main", Address: 0x150, Bank: 0},
		{Name: "helper", Address: 0x200, Bank: 0},
	})
	layout := regions.DefaultLayout()
	index := regions.NewIndex(regions.Build(table, layout))
	return tracker.New(index, layout, table.FrameNames())
}

func TestReplay(t *testing.T) {
	log := `# sample run
0x150 0 0
0x200 0 10
frame
capture shot-0001.png
0x150 0 20
`
	tk := newTestTracker()
	summary, err := Replay(strings.NewReader(log), tk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Instructions != 3 {
		t.Errorf("expected 3 instructions, got %d", summary.Instructions)
	}
	if summary.Frames != 1 || len(summary.FrameTimes) != 1 || summary.FrameTimes[0] != 10 {
		t.Errorf("unexpected frame summary: %+v", summary)
	}
	if summary.Captures != 1 {
		t.Errorf("expected 1 capture, got %d", summary.Captures)
	}

	tr := tk.Finish()
	if len(tr.Events) != 4 {
		t.Errorf("expected 4 events after finish, got %+v", tr.Events)
	}
	if len(tr.Captures) != 1 || tr.Captures[0] != (tracker.Capture{Ref: "shot-0001.png", At: 10}) {
		t.Errorf("unexpected captures: %+v", tr.Captures)
	}
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "0x150 0"},
		{"too many fields", "0x150 0 0 0"},
		{"missing hex prefix", "150 0 0"},
		{"invalid pc", "0xzzzz 0 0"},
		{"invalid bank", "0x150 x 0"},
		{"invalid time", "0x150 0 -5"},
		{"capture without reference", "capture"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Replay(strings.NewReader(tc.line+"\n"), newTestTracker()); err == nil {
				t.Errorf("expected error for %q", tc.line)
			}
		})
	}
}
