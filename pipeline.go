package rangecoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mewkiz/pkg/errutil"
	"github.com/mewkiz/rangecoder/huffman"
)

// Magic identifies a compressed stream produced by this package.
const Magic = "w30i"

// BitModel is what a compression pipeline drives: Predict returns the
// current P(bit=1) estimate, Update folds in the observed bit. It mirrors
// model.Model structurally (not by import, to avoid model depending on
// this package through package history) — any *model.OrderN or
// *model.HuffPrefix satisfies it as-is.
type BitModel interface {
	Predict() uint16
	Update(bit byte)
}

// FormatError reports a malformed header: a magic mismatch or a header
// that is otherwise impossible to interpret. It is always the caller's
// fault (corrupt or foreign input), never a programmer error, so it is
// returned rather than panicked.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "rangecoder: " + e.Msg }

// WriteHeader writes the wire header: magic, the big-endian decompressed
// length, then modelBlob verbatim if non-empty.
func WriteHeader(w io.Writer, length uint64, modelBlob []byte) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return errutil.Err(err)
	}
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], length)
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errutil.Err(err)
	}
	if len(modelBlob) > 0 {
		if _, err := w.Write(modelBlob); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}

// ReadHeader reads and validates the wire header, returning the
// decompressed length. If modelBlob is non-empty, ReadHeader fills it from
// the bytes immediately following the length field (its length is fixed by
// the caller, who knows which model is in play). A magic mismatch or a
// header truncated before the length field is a FormatError, since unlike
// the arithmetic body the header has no soft-EOF convention.
func ReadHeader(r io.Reader, modelBlob []byte) (uint64, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return 0, &FormatError{Msg: fmt.Sprintf("truncated magic: %v", err)}
	}
	if string(magicBuf[:]) != Magic {
		return 0, &FormatError{Msg: fmt.Sprintf("bad magic %q, want %q", magicBuf[:], Magic)}
	}
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, &FormatError{Msg: fmt.Sprintf("truncated length field: %v", err)}
	}
	n := binary.BigEndian.Uint64(lenBuf[:])
	if len(modelBlob) > 0 {
		if _, err := io.ReadFull(r, modelBlob); err != nil {
			return 0, &FormatError{Msg: fmt.Sprintf("truncated model blob: %v", err)}
		}
	}
	return n, nil
}

// Compress runs the plain arithmetic-coding pipeline: it reads all of r,
// writes the header, then for every bit of every byte (MSB first)
// predicts, encodes, and updates m, in that order. Decompress drives m
// through the same predict-before-update sequence, which is what keeps the
// two sides' model states in lockstep.
func Compress(r io.Reader, w io.Writer, m BitModel) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errutil.Err(err)
	}
	if err := WriteHeader(w, uint64(len(data)), nil); err != nil {
		return err
	}

	bw := NewWriter(w)
	ac := NewCoder()
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			p := m.Predict()
			if err := ac.Encode(bit, p, bw); err != nil {
				return err
			}
			m.Update(bit)
		}
	}
	return ac.Flush(bw)
}

// Decompress runs the plain arithmetic-decoding pipeline: it reads the
// header, primes the decoder from the 4 bytes immediately following it,
// then reconstructs exactly N bytes, 8 bits each, driving m identically to
// Compress.
func Decompress(r io.Reader, w io.Writer, m BitModel) error {
	n, err := ReadHeader(r, nil)
	if err != nil {
		return err
	}
	br := NewReader(r)
	ac, err := NewDecoder(br)
	if err != nil {
		return err
	}

	out := make([]byte, n)
	for i := range out {
		var b byte
		for j := 0; j < 8; j++ {
			p := m.Predict()
			bit, err := ac.Decode(p, br)
			if err != nil {
				return err
			}
			m.Update(bit)
			b = (b << 1) | bit
		}
		out[i] = b
	}
	if _, err := w.Write(out); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// huffmanTableMaxLen bounds the code lengths CompressHuffman assigns: wide
// enough for 256 symbols, and narrow enough that every code fits the
// 16-bit huffman.Code.Bits field and huffman.TableLenBits (6 bits/entry).
const huffmanTableMaxLen = 16

// CompressHuffman runs the AC-over-Huffman pipeline: it trains a
// canonical Huffman table on the actual input, writes the packed
// code-length table as the header's model blob, then arithmetic-codes each
// byte's codeword bits (MSB first) under m.
func CompressHuffman(r io.Reader, w io.Writer, m BitModel) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errutil.Err(err)
	}
	lens := make([]uint8, 256)
	if len(data) > 0 {
		counts := make([]uint32, 256)
		for _, b := range data {
			counts[b]++
		}
		lens = huffman.Lengths(counts, huffmanTableMaxLen)
		for sym, c := range counts {
			if c == uint32(len(data)) {
				// A lone distinct symbol gets code length 0 from the
				// package-merge; force a 1-bit code so every input byte
				// still emits a bit for the decoder to count.
				lens[sym] = 1
			}
		}
	}
	codes := huffman.Assign(lens)

	var blobBuf bytes.Buffer
	if err := huffman.WriteTable(&blobBuf, lens); err != nil {
		return errutil.Err(err)
	}
	if err := WriteHeader(w, uint64(len(data)), blobBuf.Bytes()); err != nil {
		return err
	}

	bw := NewWriter(w)
	ac := NewCoder()
	for _, b := range data {
		c := codes[b]
		for i := int(c.Len) - 1; i >= 0; i-- {
			bit := byte((c.Bits >> uint(i)) & 1)
			p := m.Predict()
			if err := ac.Encode(bit, p, bw); err != nil {
				return err
			}
			m.Update(bit)
		}
	}
	return ac.Flush(bw)
}

// huffmanBlobLen is the fixed size of the packed 256-entry code-length
// table CompressHuffman writes, matching huffman.TableLenBits.
const huffmanBlobLen = (256*huffman.TableLenBits + 7) / 8

// DecompressHuffman is the decoder half of CompressHuffman: it rebuilds the
// canonical table from the header's model blob, then walks the Huffman
// tree bit by bit — as each arithmetic-decoded bit completes a codeword, it
// emits the corresponding byte — until N bytes have been produced.
func DecompressHuffman(r io.Reader, w io.Writer, m BitModel) error {
	blob := make([]byte, huffmanBlobLen)
	n, err := ReadHeader(r, blob)
	if err != nil {
		return err
	}
	lens, err := huffman.ReadTable(bytes.NewReader(blob), 256)
	if err != nil {
		return errutil.Err(err)
	}
	codes := huffman.Assign(lens)
	tree := huffman.NewTree(codes)

	br := NewReader(r)
	ac, err := NewDecoder(br)
	if err != nil {
		return err
	}
	dec := tree.NewDecoder()

	out := make([]byte, 0, n)
	for uint64(len(out)) < n {
		p := m.Predict()
		bit, err := ac.Decode(p, br)
		if err != nil {
			return err
		}
		m.Update(bit)
		if sym, done := dec.Bit(bit); done {
			out = append(out, byte(sym))
		}
	}
	if _, err := w.Write(out); err != nil {
		return errutil.Err(err)
	}
	return nil
}
