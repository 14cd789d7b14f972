package model

import (
	"math/rand"
	"testing"
)

func TestHuffPrefixDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	bits := make([]byte, 800)
	for i := range bits {
		bits[i] = byte(rng.Intn(2))
	}

	m1 := NewHuffPrefix()
	m2 := NewHuffPrefix()
	for _, b := range bits {
		p1, p2 := m1.Predict(), m2.Predict()
		if p1 != p2 {
			t.Fatalf("two identically-fed HuffPrefix models diverged: %d != %d", p1, p2)
		}
		m1.Update(b)
		m2.Update(b)
	}
}

func TestNibTreeIndexing(t *testing.T) {
	var nt nibTree
	seen := map[int]bool{}
	bits := []byte{1, 0, 1, 1, 0, 1, 0, 0, 1, 1, 0, 0}
	for _, b := range bits {
		idx := nt.get()
		if idx < 0 || idx > 14 {
			t.Fatalf("nibTree.get() = %d, out of [0,14]", idx)
		}
		seen[idx] = true
		nt.update(b)
	}
	if nt.bitID != 0 || nt.cache != 0 {
		t.Errorf("after 12 bits (3 full nibbles), bitID=%d cache=%d, want 0, 0", nt.bitID, nt.cache)
	}
}

func TestHuffPrefixNibbleBoundaryResets(t *testing.T) {
	m := NewHuffPrefix()
	for i := 0; i < 4; i++ {
		m.Update(1)
	}
	if m.nt.bitID != 0 {
		t.Errorf("after 4 bits, nt.bitID = %d, want 0 (nibble complete)", m.nt.bitID)
	}
}
