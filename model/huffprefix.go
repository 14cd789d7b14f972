package model

import "github.com/mewkiz/rangecoder/counter"

// nibTree tracks the position of the bit currently being coded within a
// 4-bit nibble, mapping it to a binary-tree index so a single counter
// array can hold separate statistics for every prefix of the nibble
// (index 0 for the first bit, 1-2 for the second, 3-6 for the third, 7-14
// for the fourth). Grounded directly in the bit-tree indexing scheme
// common to PAQ-family nibble coders.
type nibTree struct {
	bitID uint8 // position within the nibble, 0..3
	cache uint8 // bits of the nibble seen so far, low-aligned
}

func (n *nibTree) get() int {
	return int((uint16(1)<<n.bitID - 1) + uint16(n.cache))
}

func (n *nibTree) update(bit byte) {
	n.cache = (n.cache << 1) | bit
	n.bitID = (n.bitID + 1) & 3
	if n.bitID == 0 {
		n.cache = 0
	}
}

// mask5 keeps the top 4 bits of a shifted 9-bit context and zeros the
// bottom 5, matching the Huffman-prefix model's byte-boundary context
// rotation.
const mask5 = uint16(15) << 5

// HuffPrefix is the Huffman-prefix predictive model: it keeps a counter
// array indexed by (byte context, bit-tree position) and an in-progress
// byte register, and is driven bit by bit as a Huffman codeword is
// traversed by the AC-over-Huffman pipeline. Unlike OrderN it never
// consults the raw byte stream directly — its "history" is entirely the
// current nibble position plus the rotating byte context.
type HuffPrefix struct {
	stats [512][15]counter.Counter
	nt    nibTree
	ctx   uint16
}

// NewHuffPrefix returns a fresh Huffman-prefix model with all counters
// zeroed.
func NewHuffPrefix() *HuffPrefix {
	return &HuffPrefix{}
}

func (m *HuffPrefix) Predict() uint16 {
	idx := m.nt.get()
	return m.stats[m.ctx][idx].P()
}

func (m *HuffPrefix) Update(bit byte) {
	idx := m.nt.get()
	m.stats[m.ctx][idx].Update(bit)

	if m.nt.bitID == 3 {
		nib := (m.nt.cache << 1) | bit
		vbit := (m.ctx & 1) ^ 1
		m.ctx = ((m.ctx << 4) & mask5) | (uint16(nib) << 1) | vbit
	}
	m.nt.update(bit)
}
