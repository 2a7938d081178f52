package regions

import (
	"sort"

	"banktrace-mcp/internal/symbols"
)

// Layout describes the banked memory architecture the trace was recorded
// on. The area up to FixedTop is bank-independent; the area up to BankTop
// is multiplexed by the currently mapped bank. Addresses below VectorTop
// are hardware vector dispatch and carry no call-stack information.
type Layout struct {
	FixedTop  uint16
	BankTop   uint16
	VectorTop uint16
}

// DefaultLayout returns the layout of the target hardware this tool was
// written for: 16KiB fixed bank, 16KiB switchable banks, vectors and
// header below 0x0100.
func DefaultLayout() Layout {
	return Layout{
		FixedTop:  0x3FFF,
		BankTop:   0x7FFF,
		VectorTop: 0x0100,
	}
}

// bankMax returns the last addressable code address for a bank.
func (l Layout) bankMax(bank int) uint16 {
	if bank == 0 {
		return l.FixedTop
	}
	return l.BankTop
}

// Region is a contiguous address range, scoped to one bank, attributed to
// exactly one named function. Frame is the symbol's stable frame index.
type Region struct {
	Name  string
	Frame int
	Bank  int
	Start uint16
	End   uint16
}

// Map holds the per-bank ordered region lists built from a symbol table.
type Map struct {
	layout Layout
	banks  map[int][]Region
}

// Build derives disjoint regions from the symbol table: within each bank,
// a symbol's region runs from its address up to one before the next
// symbol's address, and the last symbol's region runs to the bank's top
// address. A bank with no symbols produces no regions.
func Build(table *symbols.Table, layout Layout) *Map {
	m := &Map{
		layout: layout,
		banks:  make(map[int][]Region),
	}

	for _, sym := range table.Symbols {
		if sym.Address > layout.bankMax(sym.Bank) {
			continue
		}
		frame, ok := table.FrameIndex(sym.Name)
		if !ok {
			continue
		}
		m.banks[sym.Bank] = append(m.banks[sym.Bank], Region{
			Name:  sym.Name,
			Frame: frame,
			Bank:  sym.Bank,
			Start: sym.Address,
		})
	}

	for bank, list := range m.banks {
		sort.Slice(list, func(i, j int) bool {
			return list[i].Start < list[j].Start
		})

		max := layout.bankMax(bank)
		for i := range list {
			if i+1 < len(list) {
				end := list[i+1].Start - 1
				if end > max {
					end = max
				}
				list[i].End = end
			} else {
				list[i].End = max
			}
		}
		m.banks[bank] = list
	}

	return m
}

// Layout returns the memory layout the map was built with.
func (m *Map) Layout() Layout {
	return m.layout
}

// Bank returns the ordered region list for a bank, or nil if the bank has
// no symbols.
func (m *Map) Bank(bank int) []Region {
	return m.banks[bank]
}

// Banks returns the bank numbers that have at least one region, in
// ascending order.
func (m *Map) Banks() []int {
	banks := make([]int, 0, len(m.banks))
	for bank := range m.banks {
		banks = append(banks, bank)
	}
	sort.Ints(banks)
	return banks
}
