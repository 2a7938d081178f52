package regions

import "sort"

// Index resolves (pc, bank) observations to their owning region. Because
// the program counter moves incrementally between observations, the index
// keeps the last resolved region and retests it before searching; this
// runs once per executed instruction so the cache hit is the common path.
type Index struct {
	m    *Map
	last *Region
}

// NewIndex returns an Index over the region map.
func NewIndex(m *Map) *Index {
	return &Index{m: m}
}

// Lookup returns the region owning pc under the given mapped bank, or nil
// if no symbol covers the address. Addresses in the fixed low area always
// resolve against bank 0, whatever bank is mapped.
func (ix *Index) Lookup(pc uint16, bank int) *Region {
	if pc <= ix.m.layout.FixedTop {
		bank = 0
	}

	if r := ix.last; r != nil && r.Bank == bank && r.Start <= pc && pc <= r.End {
		return r
	}

	list := ix.m.banks[bank]
	i := sort.Search(len(list), func(i int) bool {
		return list[i].End >= pc
	})
	if i >= len(list) || list[i].Start > pc {
		ix.last = nil
		return nil
	}

	ix.last = &list[i]
	return ix.last
}
