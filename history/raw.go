package history

// Raw keeps the last 32 observed bits as a shift register; its hash is
// that register verbatim. This is the "classical" context model: the
// history IS the recent bits.
type Raw struct {
	bits uint32
}

// NewRaw returns a Raw history with an all-zero initial window.
func NewRaw() *Raw {
	return &Raw{}
}

func (r *Raw) Update(bit byte) {
	r.bits = (r.bits << 1) | uint32(bit)
}

func (r *Raw) Hash() uint32 {
	return r.bits
}
