// Package stringtable holds the workbook's shared string table: the
// de-duplicated strings LABELSST cells refer to by index.
package stringtable

import "slices"

// Table holds shared strings in insertion order.
type Table struct {
	strings []*UnicodeString
	index   map[string]int
	total   int
}

// New returns an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Add records one more reference to s and returns its index.  An equal
// entry already present is reused.
func (t *Table) Add(s *UnicodeString) int {
	t.total++
	k := s.key()
	if i, ok := t.index[k]; ok {
		return i
	}
	t.strings = append(t.strings, s)
	t.index[k] = len(t.strings) - 1
	return len(t.strings) - 1
}

// AddString is Add for a plain string.
func (t *Table) AddString(text string) int {
	return t.Add(NewUnicodeString(text))
}

// Append stores s at the next index without de-duplication, as when loading
// a table that already has duplicate entries.  It does not count a
// reference.
func (t *Table) Append(s *UnicodeString) {
	k := s.key()
	if _, ok := t.index[k]; !ok {
		t.index[k] = len(t.strings)
	}
	t.strings = append(t.strings, s)
}

// Get returns the entry at idx.  It panics if idx is out of range, matching
// the behaviour of a slice index.
func (t *Table) Get(idx int) *UnicodeString {
	return t.strings[idx]
}

// Lookup returns the entry at idx, or false when idx is out of range.
func (t *Table) Lookup(idx int) (*UnicodeString, bool) {
	if idx < 0 || idx >= len(t.strings) {
		return nil, false
	}
	return t.strings[idx], true
}

// Len returns the number of unique entries.
func (t *Table) Len() int {
	return len(t.strings)
}

// Total returns the number of references added, duplicates included.
func (t *Table) Total() int {
	return t.total
}

// SetTotal overrides the reference count, as read from an SST header.
func (t *Table) SetTotal(n int) {
	t.total = n
}

// Strings returns the entries in index order.  The slice is a copy, so
// reordering or replacing its elements does not affect t.
func (t *Table) Strings() []*UnicodeString {
	return slices.Clone(t.strings)
}
