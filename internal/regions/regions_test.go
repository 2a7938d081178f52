package regions

import (
	"testing"

	"banktrace-mcp/internal/symbols"
)

func TestBuildTwoSymbols(t *testing.T) {
	table := symbols.NewTable([]symbols.Symbol{
		{Name: "Main", Address: 0x150, Bank: 0},
		{Name: "Helper", Address: 0x200, Bank: 0},
	})
	m := Build(table, DefaultLayout())

	list := m.Bank(0)
	if len(list) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(list))
	}

	want := []Region{
		{Name: "Main", Frame: 0, Bank: 0, Start: 0x150, End: 0x1FF},
		{Name: "Helper", Frame: 1, Bank: 0, Start: 0x200, End: 0x3FFF},
	}
	for i, w := range want {
		if list[i] != w {
			t.Errorf("region %d: got %+v, want %+v", i, list[i], w)
		}
	}
}

func TestBuildDisjointAndCovering(t *testing.T) {
	table := symbols.NewTable([]symbols.Symbol{
		{Name: "Reset", Address: 0x000, Bank: 0},
		{Name: "Main", Address: 0x150, Bank: 0},
		{Name: "Helper", Address: 0x200, Bank: 0},
		{Name: "MusicUpdate", Address: 0x4000, Bank: 2},
		{Name: "MusicMix", Address: 0x5000, Bank: 2},
	})
	layout := DefaultLayout()
	m := Build(table, layout)

	for _, bank := range m.Banks() {
		list := m.Bank(bank)
		for i, r := range list {
			if r.Start > r.End {
				t.Errorf("bank %d region %d: start 0x%04X > end 0x%04X", bank, i, r.Start, r.End)
			}
			if i+1 < len(list) {
				if r.End+1 != list[i+1].Start {
					t.Errorf("bank %d: gap or overlap between %+v and %+v", bank, r, list[i+1])
				}
			} else {
				max := layout.BankTop
				if bank == 0 {
					max = layout.FixedTop
				}
				if r.End != max {
					t.Errorf("bank %d: last region ends at 0x%04X, want 0x%04X", bank, r.End, max)
				}
			}
		}
	}

	// symbol at address 0 means the whole bank is covered
	if m.Bank(0)[0].Start != 0 {
		t.Errorf("expected bank 0 coverage to start at 0, got 0x%04X", m.Bank(0)[0].Start)
	}
}

func TestBuildEmptyBank(t *testing.T) {
	table := symbols.NewTable([]symbols.Symbol{
		{Name: "Main", Address: 0x150, Bank: 0},
	})
	m := Build(table, DefaultLayout())

	if m.Bank(3) != nil {
		t.Errorf("expected no regions for bank 3, got %v", m.Bank(3))
	}
}

func TestBuildSingleSymbol(t *testing.T) {
	table := symbols.NewTable([]symbols.Symbol{
		{Name: "Only", Address: 0x4100, Bank: 1},
	})
	m := Build(table, DefaultLayout())

	list := m.Bank(1)
	if len(list) != 1 {
		t.Fatalf("expected 1 region, got %d", len(list))
	}
	if list[0].Start != 0x4100 || list[0].End != 0x7FFF {
		t.Errorf("unexpected region %+v", list[0])
	}
}

func newTestIndex() *Index {
	table := symbols.NewTable([]symbols.Symbol{
		{Name: "Main", Address: 0x150, Bank: 0},
		{Name: "Helper", Address: 0x200, Bank: 0},
		{Name: "MusicUpdate", Address: 0x4000, Bank: 1},
		{Name: "MapLoad", Address: 0x4000, Bank: 2},
	})
	return NewIndex(Build(table, DefaultLayout()))
}

func TestIndexLookup(t *testing.T) {
	ix := newTestIndex()

	tests := []struct {
		name string
		pc   uint16
		bank int
		want string // "" for no region
	}{
		{"entry address", 0x150, 0, "Main"},
		{"inside region", 0x1FF, 0, "Main"},
		{"next region", 0x200, 0, "Helper"},
		{"gap below first symbol", 0x100, 0, ""},
		{"fixed area ignores mapped bank", 0x150, 2, "Main"},
		{"switchable bank 1", 0x4800, 1, "MusicUpdate"},
		{"switchable bank 2", 0x4800, 2, "MapLoad"},
		{"unmapped bank", 0x4800, 9, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := ix.Lookup(tc.pc, tc.bank)
			if tc.want == "" {
				if r != nil {
					t.Errorf("expected no region, got %+v", r)
				}
				return
			}
			if r == nil || r.Name != tc.want {
				t.Errorf("got %+v, want %s", r, tc.want)
			}
		})
	}
}

func TestIndexCache(t *testing.T) {
	ix := newTestIndex()

	r1 := ix.Lookup(0x150, 0)
	r2 := ix.Lookup(0x151, 0)
	if r1 == nil || r1 != r2 {
		t.Error("expected cached region for incremental pc")
	}

	// a bank switch at the same pc must not be served from the cache
	b1 := ix.Lookup(0x4000, 1)
	b2 := ix.Lookup(0x4000, 2)
	if b1 == nil || b2 == nil || b1.Name == b2.Name {
		t.Errorf("bank switch served stale region: %+v vs %+v", b1, b2)
	}
}
