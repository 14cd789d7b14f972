package huffman

import (
	"io"

	"github.com/icza/bitio"
)

// TableLenBits is the fixed width used to pack each symbol's code length
// into the header's model blob for the AC-over-Huffman pipeline: wide
// enough for any maxLen this package produces (lengths never exceed 32).
const TableLenBits = 6

// WriteTable packs lens (one entry per symbol, 0 meaning absent) into w,
// TableLenBits bits apiece, padding the final byte with zero bits. This is
// the header's optional model blob.
func WriteTable(w io.Writer, lens []uint8) error {
	bw := bitio.NewWriter(w)
	for _, l := range lens {
		if err := bw.WriteBits(uint64(l), TableLenBits); err != nil {
			return err
		}
	}
	return bw.Close()
}

// ReadTable unpacks n code lengths previously written by WriteTable.
func ReadTable(r io.Reader, n int) ([]uint8, error) {
	br := bitio.NewReader(r)
	lens := make([]uint8, n)
	for i := range lens {
		v, err := br.ReadBits(TableLenBits)
		if err != nil {
			return nil, err
		}
		lens[i] = uint8(v)
	}
	return lens, nil
}
