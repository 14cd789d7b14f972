// Package huffman computes length-limited canonical prefix codes from
// symbol frequencies using the package-merge algorithm. It backs both the
// AC-over-Huffman compression pipeline and the Huffman-coded context
// producer (history.Huff).
package huffman

import "sort"

// Lengths computes, for each symbol's frequency in counts, the code length
// of an optimal prefix code subject to the Kraft inequality and a maximum
// length of maxLen. Symbols with a zero count are absent and receive length
// 0. Panics if counts holds no nonzero entries, if maxLen exceeds 32, or if
// there are more present symbols than 1<<maxLen — all programmer errors.
func Lengths(counts []uint32, maxLen uint8) []uint8 {
	type entry struct {
		sym   int
		count uint32
	}
	present := make([]entry, 0, len(counts))
	for sym, c := range counts {
		if c != 0 {
			present = append(present, entry{sym, c})
		}
	}
	if len(present) == 0 {
		panic("huffman: no symbols provided")
	}
	if maxLen > 32 {
		panic("huffman: max length is too big")
	}
	if uint64(len(present)) > uint64(1)<<maxLen {
		panic("huffman: max length is too small")
	}
	sort.SliceStable(present, func(i, j int) bool { return present[i].count < present[j].count })

	sorted := make([]uint32, len(present))
	for i, e := range present {
		sorted[i] = e.count
	}
	sortedLens := lengthsSorted(sorted, maxLen)

	lens := make([]uint8, len(counts))
	for i, e := range present {
		lens[e.sym] = sortedLens[i]
	}
	return lens
}

// lengthsSorted implements package-merge over already ascending-sorted
// counts. a must be non-empty.
func lengthsSorted(a []uint32, maxLen uint8) []uint8 {
	n := len(a)
	packageDepths := make([]uint32, n*2-1)
	prev := append([]uint32(nil), a...)

	for depth := uint8(1); depth < maxLen; depth++ {
		mask := uint32(1) << depth
		packages := make([]uint32, len(prev)/2)
		for i := range packages {
			packages[i] = prev[2*i] + prev[2*i+1]
		}
		curr := make([]uint32, 0, len(a)+len(packages))
		si, pj := 0, 0
		for si < len(a) || pj < len(packages) {
			var isPackage bool
			switch {
			case pj >= len(packages):
				isPackage = false
			case si >= len(a):
				isPackage = true
			default:
				// Ties prefer the original sequence over packages.
				isPackage = packages[pj] < a[si]
			}
			if isPackage {
				packageDepths[len(curr)] |= mask
				curr = append(curr, packages[pj])
				pj++
			} else {
				curr = append(curr, a[si])
				si++
			}
		}
		prev = curr
	}

	codeLens := make([]uint8, n)
	relevant := n*2 - 2
	for depth := int(maxLen) - 1; depth >= 0; depth-- {
		if relevant == 0 {
			break
		}
		mask := uint32(1) << uint(depth)
		sym := 0
		for _, flag := range packageDepths[:relevant] {
			if flag&mask == 0 {
				codeLens[sym]++
				sym++
			}
		}
		relevant = (relevant - sym) * 2
	}
	return codeLens
}

// Code is a canonical prefix code: the low Len bits of Bits, MSB first.
type Code struct {
	Bits uint16
	Len  uint8
}

// Assign produces the canonical code table for the given code lengths:
// symbols are stably sorted by (length, original index), and within each
// ascending length class codes are assigned consecutive integers starting
// at (previous_base + count_at_prev_len), shifted left by the difference
// between the two lengths (<< 1 for adjacent lengths). Symbols with length 0 are
// absent and receive Code{0, 0}.
func Assign(lengths []uint8) []Code {
	type entry struct {
		sym int
		len uint8
	}
	order := make([]entry, len(lengths))
	for i, l := range lengths {
		order[i] = entry{i, l}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].len < order[j].len })

	codes := make([]Code, len(lengths))
	var base uint16
	var prevLen uint8
	var countAtPrevLen int
	first := true
	for _, e := range order {
		if e.len == 0 {
			continue
		}
		if first {
			prevLen = e.len
			first = false
		} else if e.len != prevLen {
			base = (base + uint16(countAtPrevLen)) << (e.len - prevLen)
			prevLen = e.len
			countAtPrevLen = 0
		}
		codes[e.sym] = Code{Bits: base + uint16(countAtPrevLen), Len: e.len}
		countAtPrevLen++
	}
	return codes
}
