// Package model provides the predictive-model framework: tables of
// counter.Counter indexed by a history fingerprint, exposing the
// predict/update contract the compression pipeline drives one bit at a
// time.
package model

import (
	"github.com/mewkiz/rangecoder/counter"
	"github.com/mewkiz/rangecoder/history"
)

// Model is what the compression pipeline drives: Predict returns the
// current P(bit=1) estimate, and Update folds in the bit actually
// observed, on both the encoder and decoder side.
type Model interface {
	Predict() uint16
	Update(bit byte)
}

// OrderN is the counter-table predictive model: a table of 1<<contextBits
// counters indexed by a history fingerprint combined with a small rotating
// alignment counter. Plugging in history.NewRaw gives a classical order-N
// context model; plugging in an *history.EntropyHash (or
// *history.EntropyHashCached) gives the entropy-hashed family. The choice
// of History is the only difference between the two.
type OrderN struct {
	stats         []counter.Counter
	ctx           uint32
	history       history.History
	alignment     uint32
	contextBits   uint8
	alignmentBits uint8
}

// NewOrderN returns an OrderN model with a table of 1<<contextBits
// counters, alignmentBits (<=4) low bits of ctx reserved for a rotating
// alignment counter, and h as its context producer.
func NewOrderN(contextBits, alignmentBits uint8, h history.History) *OrderN {
	return &OrderN{
		stats:         make([]counter.Counter, uint32(1)<<contextBits),
		history:       h,
		contextBits:   contextBits,
		alignmentBits: alignmentBits,
	}
}

func (m *OrderN) Predict() uint16 {
	return m.stats[m.ctx].P()
}

func (m *OrderN) Update(bit byte) {
	m.stats[m.ctx].Update(bit)

	m.history.Update(bit)
	alignmentMask := uint32(1)<<m.alignmentBits - 1
	m.alignment = (m.alignment + 1) & alignmentMask

	maskBits := m.contextBits - m.alignmentBits
	mask := uint32(1)<<maskBits - 1
	hash := m.history.Hash() & mask
	m.ctx = (hash << m.alignmentBits) | m.alignment
}
