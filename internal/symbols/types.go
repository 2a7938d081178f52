package symbols

// Symbol is a single code symbol extracted from a debug symbol file.
type Symbol struct {
	Name    string
	Address uint16
	Bank    int
}

// Table holds the filtered, deduplicated symbol list together with the
// stable frame index assigned to each distinct symbol name. Frame indices
// are fixed at load time, in order of first appearance, and are the symbol
// references used throughout the recorded trace.
type Table struct {
	Symbols []Symbol

	frameIndex map[string]int
	frameNames []string
}

// NewTable builds a Table from raw symbol records. Records are
// deduplicated by (bank, address) with last-write-wins resolution; the
// surviving record keeps the position of the first record seen for that
// (bank, address) pair.
func NewTable(raw []Symbol) *Table {
	t := &Table{
		frameIndex: make(map[string]int),
	}

	pos := make(map[uint32]int)
	for _, sym := range raw {
		key := uint32(sym.Bank)<<16 | uint32(sym.Address)
		if i, ok := pos[key]; ok {
			t.Symbols[i] = sym
			continue
		}
		pos[key] = len(t.Symbols)
		t.Symbols = append(t.Symbols, sym)
	}

	for _, sym := range t.Symbols {
		if _, ok := t.frameIndex[sym.Name]; !ok {
			t.frameIndex[sym.Name] = len(t.frameNames)
			t.frameNames = append(t.frameNames, sym.Name)
		}
	}

	return t
}

// FrameIndex returns the stable numeric reference for a symbol name.
func (t *Table) FrameIndex(name string) (int, bool) {
	i, ok := t.frameIndex[name]
	return i, ok
}

// FrameNames returns all distinct symbol names in frame-index order.
func (t *Table) FrameNames() []string {
	return t.frameNames
}

// Len returns the number of symbols surviving deduplication.
func (t *Table) Len() int {
	return len(t.Symbols)
}
