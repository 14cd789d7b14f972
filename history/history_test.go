package history

import (
	"math/rand"
	"testing"

	"github.com/mewkiz/rangecoder/stationary"
)

func feed(h History, bits []byte) {
	for _, b := range bits {
		h.Update(b)
	}
}

func TestRawHashIsShiftRegister(t *testing.T) {
	h := NewRaw()
	bits := []byte{1, 0, 1, 1, 0, 0, 1, 0}
	var want uint32
	for _, b := range bits {
		h.Update(b)
		want = (want << 1) | uint32(b)
	}
	if got := h.Hash(); got != want {
		t.Errorf("Hash() = %#x, want %#x", got, want)
	}
}

func TestMaskNarrowsHash(t *testing.T) {
	h := Mask(NewRaw(), 4)
	bits := []byte{1, 1, 1, 1, 0, 0, 0, 0}
	feed(h, bits)
	if got, want := h.Hash(), uint32(0); got != want {
		t.Errorf("Hash() = %#x, want %#x", got, want)
	}
	if h.Hash() >= 1<<4 {
		t.Errorf("Hash() = %#x exceeds mask width", h.Hash())
	}
}

func TestEntropyHashDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h1 := NewEntropyHash(24, stationary.Book1)
	h2 := NewEntropyHash(24, stationary.Book1)
	for i := 0; i < 200; i++ {
		bit := byte(rng.Intn(2))
		h1.Update(bit)
		h2.Update(bit)
		if g1, g2 := h1.Hash(), h2.Hash(); g1 != g2 {
			t.Fatalf("step %d: two identically-fed EntropyHash instances diverged: %#x != %#x", i, g1, g2)
		}
	}
}

// TestEntropyHashCachedAgreesWithUncached checks that the cached variant
// agrees bit-for-bit with the uncached one at every step.
func TestEntropyHashCachedAgreesWithUncached(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	plain := NewEntropyHash(20, stationary.Book1)
	cached := NewEntropyHashCached(20, 8, stationary.Book1)
	for i := 0; i < 500; i++ {
		bit := byte(rng.Intn(2))
		plain.Update(bit)
		cached.Update(bit)
		if g1, g2 := plain.Hash(), cached.Hash(); g1 != g2 {
			t.Fatalf("step %d: cached/uncached EntropyHash disagree: %#x != %#x", i, g1, g2)
		}
	}
}

func TestEntropyHashCachedRepeatable(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bits := make([]byte, 300)
	for i := range bits {
		bits[i] = byte(rng.Intn(2))
	}

	h := NewEntropyHashCached(16, 8, stationary.Enwik7)
	var first []uint32
	for _, b := range bits {
		h.Update(b)
		first = append(first, h.Hash())
	}

	h2 := NewEntropyHashCached(16, 8, stationary.Enwik7)
	var second []uint32
	for _, b := range bits {
		h2.Update(b)
		second = append(second, h2.Hash())
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("step %d: repeated run diverged: %#x != %#x", i, first[i], second[i])
		}
	}
}

func TestHuffHistoryDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	training := make([]byte, 4096)
	rng.Read(training)

	h1 := NewHuff(training, 12, 10)
	h2 := NewHuff(training, 12, 10)

	for i := 0; i < 1000; i++ {
		bit := byte(rng.Intn(2))
		h1.Update(bit)
		h2.Update(bit)
		if g1, g2 := h1.Hash(), h2.Hash(); g1 != g2 {
			t.Fatalf("step %d: two identically-trained Huff histories diverged: %#x != %#x", i, g1, g2)
		}
	}
}
