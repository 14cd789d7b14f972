package rangecoder

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// writerAndByteWriter mirrors the constraint icza/bitio.NewWriter places on
// its sink, so Writer can skip its own buffering when the destination
// already supports single-byte writes.
type writerAndByteWriter interface {
	io.Writer
	io.ByteWriter
}

// Writer is the bit-level sink feeding the arithmetic coder. It packs
// bits MSB-first into bytes and defers "parity" bits (emitted during E3
// underflow handling) as an unsigned count rather than a queue, writing them
// as the complement of the next real bit.
type Writer struct {
	out   writerAndByteWriter
	bw    *bufio.Writer // non-nil only if out needed wrapping
	cache byte          // partial byte, bits pushed from the low end
	count uint8         // number of bits currently in cache, in [0,8)
	rev   uint64        // deferred parity bit count
}

// NewWriter returns a Writer that packs bits into bytes written to w.
func NewWriter(w io.Writer) *Writer {
	bw := &Writer{}
	if wbw, ok := w.(writerAndByteWriter); ok {
		bw.out = wbw
	} else {
		inner := bufio.NewWriter(w)
		bw.bw = inner
		bw.out = inner
	}
	return bw
}

func (w *Writer) writeBitRaw(bit byte) error {
	w.cache = (w.cache << 1) | (bit & 1)
	w.count++
	if w.count == 8 {
		w.count = 0
		if err := w.out.WriteByte(w.cache); err != nil {
			return errutil.Err(err)
		}
		w.cache = 0
	}
	return nil
}

// WriteBit pushes a single bit, immediately following it with any
// deferred parity bits written as bit's complement (see IncParity).
func (w *Writer) WriteBit(bit byte) error {
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

// IncParity defers one E3 bit; it is resolved on the next WriteBit call.
func (w *Writer) IncParity() {
	w.rev++
}

// Flush emits the final state bit (the top bit of state, unconditionally),
// then pads out any remaining bits of the current byte from the high bits
// of state, and finally flushes the underlying writer. Exactly one bit
// beyond the current alignment is always written.
func (w *Writer) Flush(state uint32) error {
	if err := w.WriteBit(byte(state >> 31)); err != nil {
		return err
	}
	state <<= 1
	for w.count > 0 {
		if err := w.WriteBit(byte(state >> 31)); err != nil {
			return err
		}
		state <<= 1
	}
	if w.bw != nil {
		if err := w.bw.Flush(); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}

// Reader is the bit-level source feeding the arithmetic decoder.
// Reading past the end of the underlying stream is not an error: it
// contractually yields zero bits, since the decoder always knows the exact
// number of bits it must decode.
type Reader struct {
	in   io.Reader
	buf  byte
	mask byte // 0 means the cache is exhausted and must be refilled
}

// NewReader returns a Reader that unpacks bits from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{in: r}
}

// ReadByte reads one byte directly from the underlying stream, bypassing
// the bit cache. It must only be called while the cache is empty (i.e.
// before the first ReadBit, or right after a byte boundary), which is the
// case for the decoder's priming read of the initial 4 bytes.
func (r *Reader) ReadByte() (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(r.in, b[:])
	switch err {
	case nil:
		return b[0], nil
	case io.EOF, io.ErrUnexpectedEOF:
		return 0, nil
	default:
		return 0, errutil.Err(err)
	}
}

// ReadBit returns the next bit, MSB-first within each byte.
func (r *Reader) ReadBit() (byte, error) {
	r.mask >>= 1
	if r.mask == 0 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		r.buf = b
		r.mask = 1 << 7
	}
	if r.buf&r.mask != 0 {
		return 1, nil
	}
	return 0, nil
}

// ReadU32 reads four big-endian bytes from the underlying stream, zero
// padding any bytes missing because of EOF.
func (r *Reader) ReadU32() (uint32, error) {
	var bs [4]byte
	for i := range bs {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		bs[i] = b
	}
	return binary.BigEndian.Uint32(bs[:]), nil
}

// Nibble is a high-then-low pair of 4-bit values read from one byte.
type Nibble struct {
	High, Low byte
}

// ReadNibbles reads one byte's worth of bits and returns it split into its
// high and low nibble, high first.
func (r *Reader) ReadNibbles() (Nibble, error) {
	var n Nibble
	for i := 0; i < 4; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return Nibble{}, err
		}
		n.High = (n.High << 1) | bit
	}
	for i := 0; i < 4; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return Nibble{}, err
		}
		n.Low = (n.Low << 1) | bit
	}
	return n, nil
}
