package symbols

import "testing"

func TestNewTableDedup(t *testing.T) {
	table := NewTable([]Symbol{
		{Name: "Old", Address: 0x150, Bank: 0},
		{Name: "New", Address: 0x150, Bank: 0},
		{Name: "Helper", Address: 0x200, Bank: 0},
		{Name: "Old", Address: 0x150, Bank: 1},
	})

	if table.Len() != 3 {
		t.Fatalf("expected 3 symbols after dedup, got %d", table.Len())
	}

	// last write wins for (bank, address), keeping first position
	if table.Symbols[0].Name != "New" {
		t.Errorf("expected New at position 0, got %s", table.Symbols[0].Name)
	}
	// same address in a different bank is a distinct symbol
	if table.Symbols[2].Name != "Old" || table.Symbols[2].Bank != 1 {
		t.Errorf("expected bank 1 Old at position 2, got %+v", table.Symbols[2])
	}
}

func TestFrameIndexOrder(t *testing.T) {
	table := NewTable([]Symbol{
		{Name: "Main", Address: 0x150, Bank: 0},
		{Name: "Helper", Address: 0x200, Bank: 0},
		{Name: "Main", Address: 0x4000, Bank: 1}, // aliased name, one frame
	})

	names := table.FrameNames()
	if len(names) != 2 || names[0] != "Main" || names[1] != "Helper" {
		t.Fatalf("unexpected frame names: %v", names)
	}

	if i, ok := table.FrameIndex("Helper"); !ok || i != 1 {
		t.Errorf("expected Helper at frame 1, got %d (ok=%v)", i, ok)
	}
	if _, ok := table.FrameIndex("Missing"); ok {
		t.Error("expected no frame index for unknown symbol")
	}
}
