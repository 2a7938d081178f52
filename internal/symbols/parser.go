package symbols

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadSymFile reads a debug symbol file and returns the table of code
// symbols. Lines have the form "BB:AAAA Name" (bank and address in hex);
// lines starting with ';' are comments. Symbols above maxCode, sub-labels
// and toolchain-internal names are filtered out before the table is built.
func ReadSymFile(filePath string, maxCode uint16) (*Table, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol file: %w", err)
	}
	defer f.Close()

	table, err := ParseSym(f, maxCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return table, nil
}

// ParseSym parses symbol records from r. Malformed lines are an error;
// non-code symbols are silently dropped.
func ParseSym(r io.Reader, maxCode uint16) (*Table, error) {
	var raw []Symbol

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed symbol line: %q", line)
		}

		loc := strings.SplitN(fields[0], ":", 2)
		if len(loc) != 2 {
			return nil, fmt.Errorf("malformed symbol location %q (expected BANK:ADDR)", fields[0])
		}

		bank, err := strconv.ParseUint(loc[0], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid bank %q: %w", loc[0], err)
		}
		addr, err := strconv.ParseUint(loc[1], 16, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", loc[1], err)
		}

		name := normalizeName(fields[1])
		if !isCodeSymbol(name, uint16(addr), maxCode) {
			continue
		}

		raw = append(raw, Symbol{
			Name:    name,
			Address: uint16(addr),
			Bank:    int(bank),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading symbol file: %w", err)
	}

	return NewTable(raw), nil
}

// normalizeName strips any relocation/segment suffix appended to the raw
// symbol name by the toolchain.
func normalizeName(name string) string {
	if i := strings.IndexByte(name, '&'); i >= 0 {
		return name[:i]
	}
	return name
}

// isCodeSymbol reports whether a symbol should contribute an address
// region. Sub-labels (dotted names), toolchain-internal names and
// anything outside the code address space are excluded.
func isCodeSymbol(name string, addr uint16, maxCode uint16) bool {
	if name == "" {
		return false
	}
	if strings.ContainsRune(name, '.') {
		return false
	}
	if strings.HasPrefix(name, "__") {
		return false
	}
	return addr <= maxCode
}
