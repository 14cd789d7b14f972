package history

import (
	"errors"

	"github.com/mewkiz/rangecoder"
	"github.com/mewkiz/rangecoder/stationary"
)

// errSinkFull is the "soft stop" signal an entropyWriter gives once it has
// collected maxBits fractional bits; it is not a real I/O error and is
// never returned to a caller of History.Hash.
var errSinkFull = errors.New("history: entropy sink full")

// entropyWriter is the in-memory rangecoder.BitSink behind EntropyHash: it
// accumulates emitted bits high-order-aligned into state and never touches
// real I/O. Deferred E3 "parity" bits are tracked exactly as the real
// Writer tracks them.
type entropyWriter struct {
	state   uint32
	rev     uint16
	idx     uint8
	maxBits uint8
}

func (w *entropyWriter) writeBitRaw(bit byte) error {
	if w.idx == w.maxBits {
		return errSinkFull
	}
	w.state = (w.state >> 1) | (uint32(bit) << 31)
	w.idx++
	return nil
}

func (w *entropyWriter) WriteBit(bit byte) error {
	if err := w.writeBitRaw(bit); err != nil {
		return err
	}
	for w.rev > 0 {
		w.rev--
		if err := w.writeBitRaw(bit ^ 1); err != nil {
			return err
		}
	}
	return nil
}

func (w *entropyWriter) IncParity() { w.rev++ }

// fingerprint returns the sink's high-order-aligned accumulator, right
// justified to its idx valid bits.
func (w *entropyWriter) fingerprint() uint32 {
	return w.state >> (32 - w.idx)
}

// EntropyHash is the entropy-hash (AC-history) context producer: instead of
// hashing the raw recent bits, it feeds them — most recent first — through
// a secondary arithmetic encoder driven by a stationary probability model,
// and uses the resulting fractional bits as the context fingerprint.
// Contexts with similar predicted futures collide, concentrating predictive
// power where it matters most.
type EntropyHash struct {
	bits      uint64
	alignment uint8
	maxBits   uint8
	table     stationary.Table
}

// NewEntropyHash returns an EntropyHash that derives a maxBits-wide
// fingerprint (maxBits must be <= 32) using the given stationary table.
func NewEntropyHash(maxBits uint8, table stationary.Table) *EntropyHash {
	return &EntropyHash{maxBits: maxBits, table: table}
}

func (h *EntropyHash) Update(bit byte) {
	h.bits = (h.bits << 1) | uint64(bit)
	h.alignment = (h.alignment + 1) & 7
}

func (h *EntropyHash) Hash() uint32 {
	ac := rangecoder.NewCoder()
	w := &entropyWriter{maxBits: h.maxBits}
	model := stationary.New(h.table)
	model.Align(h.alignment)

	for i := 0; i < 64; i++ {
		bit := byte((h.bits >> uint(i)) & 1)
		if err := ac.Encode(bit, model.Predict(), w); err != nil {
			break
		}
	}
	return w.fingerprint()
}

// cacheKey identifies a memoized (writer, coder) pair by the low cacheSize
// bits of the bit window plus the current alignment. which distinguishes
// the full-size cache from the half-size warm-start cache so they can't
// collide with each other.
type cacheKey struct {
	bits      uint64
	alignment uint8
	which     uint8
}

type cacheEntry struct {
	writer entropyWriter
	coder  rangecoder.Coder
}

// EntropyHashCached is EntropyHash with two memoization levels: a full
// cache keyed on the low cacheSize bits of the window, and a half-size
// cache (cacheSize/2) that provides a warm start when the full cache
// misses. This amortizes the O(#bits_probed) cost of Hash across calls
// that share a common prefix of recent bits.
type EntropyHashCached struct {
	pos       uint64
	bits      uint64
	maxBits   uint8
	cacheSize uint8
	table     stationary.Table
	cache     map[cacheKey]cacheEntry
}

// NewEntropyHashCached returns a cached EntropyHash. cacheSize is the
// number of low bits of the window used as the primary cache key; the
// secondary cache uses cacheSize/2.
func NewEntropyHashCached(maxBits, cacheSize uint8, table stationary.Table) *EntropyHashCached {
	return &EntropyHashCached{maxBits: maxBits, cacheSize: cacheSize, table: table, cache: make(map[cacheKey]cacheEntry)}
}

func (h *EntropyHashCached) Update(bit byte) {
	h.bits = (h.bits << 1) | uint64(bit)
	h.pos++
}

func (h *EntropyHashCached) Hash() uint32 {
	alignment := uint8(h.pos & 7)
	c1, c2 := h.cacheSize, h.cacheSize/2
	m1 := uint64(1)<<c1 - 1
	m2 := uint64(1)<<c2 - 1
	k1 := cacheKey{h.bits & m1, alignment, 0}
	k2 := cacheKey{h.bits & m2, alignment, 1}

	var start uint8
	var w entropyWriter
	var ac rangecoder.Coder
	switch {
	case h.cache != nil && cacheHas(h.cache, k1):
		e := h.cache[k1]
		start, w, ac = c1, e.writer, e.coder
	case h.cache != nil && cacheHas(h.cache, k2):
		e := h.cache[k2]
		start, w, ac = c2, e.writer, e.coder
	default:
		start, w, ac = 0, entropyWriter{maxBits: h.maxBits}, *rangecoder.NewCoder()
	}

	align := (alignment + 32 - start) & 7
	model := stationary.New(h.table)
	model.Align(align)

	for i := start; i < 64; i++ {
		bit := byte((h.bits >> i) & 1)
		p := model.Predict()
		if err := ac.Encode(bit, p, &w); err != nil {
			break
		}
		if i == c2-1 {
			h.cache[k2] = cacheEntry{w, ac}
		}
		if i == c1-1 {
			h.cache[k1] = cacheEntry{w, ac}
		}
	}
	return w.fingerprint()
}

func cacheHas(cache map[cacheKey]cacheEntry, k cacheKey) bool {
	_, ok := cache[k]
	return ok
}
