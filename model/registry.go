package model

import (
	"fmt"

	"github.com/mewkiz/rangecoder/history"
	"github.com/mewkiz/rangecoder/stationary"
)

// Preset names a ready-to-use model configuration the CLI can select
// without recompiling.
const (
	PresetOrder0      = "order0"
	PresetOrder2      = "order2"
	PresetOrder4Raw   = "order4raw"
	PresetEntropyHash = "entropyhash"
	PresetHuffPrefix  = "huffprefix"
)

// Names lists every preset recognized by Preset, in a stable order
// suitable for CLI help text.
func Names() []string {
	return []string{PresetOrder0, PresetOrder2, PresetOrder4Raw, PresetEntropyHash, PresetHuffPrefix}
}

// Preset constructs a fresh instance of the named model and, where the
// model needs one, its header model blob. Every preset but huffprefix
// returns a nil blob: an OrderN model's state is entirely the symmetric
// zero-initialized counter table both encoder and decoder start from, with
// nothing to transmit. huffprefix is driven by a per-file canonical
// Huffman table the compression pipeline builds from the actual input and
// writes into the header itself (the 256-entry code-length table); Preset
// therefore always returns a nil blob for it too; it exists in this list
// so the CLI can offer it as a model name even though its blob isn't known
// until the pipeline trains against the real input.
func Preset(name string) (Model, []byte, error) {
	switch name {
	case PresetOrder0:
		// No real context beyond bit position in the byte: 8 slots,
		// selected purely by the alignment counter.
		return NewOrderN(3, 3, history.NewRaw()), nil, nil
	case PresetOrder2:
		// Last two raw bytes (16 bits) as context.
		return NewOrderN(19, 3, history.NewRaw()), nil, nil
	case PresetOrder4Raw:
		// A 20-bit window of raw history (2.5 bytes): wider contexts
		// stop paying off past this without hashing, which this family
		// deliberately doesn't do (that's what entropyhash is for).
		return NewOrderN(24, 4, history.Mask(history.NewRaw(), 20)), nil, nil
	case PresetEntropyHash:
		// Entropy-hashed context: a 19-bit fingerprint derived from an
		// inner AC run over the last 64 bits, using the calibrated book1
		// stationary table, cached for O(1) amortized Hash calls.
		return NewOrderN(22, 3, history.NewEntropyHashCached(19, 8, stationary.Book1)), nil, nil
	case PresetHuffPrefix:
		return NewHuffPrefix(), nil, nil
	default:
		return nil, nil, fmt.Errorf("model: unknown preset %q (want one of %v)", name, Names())
	}
}
