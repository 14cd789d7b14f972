// Package stationary provides the fixed, non-adaptive per-bit-position
// probability table used inside the entropy-hash history (see package
// history). Unlike counter.Counter, a Model here never learns; its table
// is calibrated once, offline, on a reference corpus.
package stationary

// Table holds eight calibrated probabilities, one per bit position within a
// byte (index 0 = most significant bit).
type Table [8]uint16

// Book1 is calibrated against the classic Calgary-corpus book1 text.
var Book1 = Table{1, 50188, 62497, 15819, 22545, 31499, 22988, 29616}

// Enwik7 is calibrated against a 10 MiB slice of enwik9-style Wikipedia text.
var Enwik7 = Table{752, 50314, 58928, 21421, 24680, 30788, 24297, 32530}

// Model walks a Table backwards: each call to Predict first moves the
// position back by one (modulo 8) and then returns the probability for
// that position, so after Align(a) the first call reads entry a-1. This
// reversed traversal is what lets the
// entropy-hash history (history.EntropyHash) feed the most recent bit into
// its internal encoder first.
type Model struct {
	table     Table
	alignment uint8
}

// New returns a Model over the given table, aligned to bit position 0.
func New(table Table) Model {
	return Model{table: table}
}

// Align sets the current bit position to a, which must be in [0, 8).
func (m *Model) Align(a uint8) {
	m.alignment = a & 7
}

// Predict steps the position backwards by one (mod 8), then returns the
// probability at the new position.
func (m *Model) Predict() uint16 {
	m.alignment = (m.alignment + 7) & 7 // -1 mod 8
	return m.table[m.alignment]
}
