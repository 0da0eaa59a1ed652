package interleave

// SymbolInterleaver permutes groups of N_max nu-bit symbols into a block of
// the same length via the even/odd-symbol-dependent permutation H described
// in spec.md 4.7. H is derived from a maximal-length LFSR sequence over
// N_bit-1 bits, the way ETSI EN 300 744 defines it; this implementation
// materialises H once at construction (spec.md 9 allows this) rather than
// regenerating it per symbol.
type SymbolInterleaver struct {
	nMax int
	h    []int // h[q] = output position input symbol q is written to, for even symbols
	hInv []int // inverse permutation, used for odd symbols

	evenSymbol bool // alternates every call to Process
}

// primitivePoly gives a primitive polynomial (as feedback tap positions,
// 1-indexed from the LSB) for the maximal-length sequence generator, one per
// FFT address width N_bit-1 in {10,11,12} (2K/4K/8K).
var primitivePoly = map[int][]int{
	10: {10, 3},       // x^10+x^3+1
	11: {11, 2},       // x^11+x^2+1
	12: {12, 6, 4, 1}, // x^12+x^6+x^4+x+1
}

// NewSymbolInterleaver builds H for the given OFDM data-cell count nMax and
// FFT address width carrierBit (N_bit in spec.md terms).
//
// A maximal-length LFSR of width m=carrierBit-1 visits every one of its
// 2^m-1 nonzero states exactly once per period; combined with the (i mod 2)
// term this yields two candidate values per state (one below 2^m, one at or
// above it), of which only those below nMax are kept. Because nMax exceeds
// 2^m for every mode (1512>1024, 3024>2048, 6048>4096), a single period does
// not produce enough accepted candidates on its own: the generator is run
// across repeated periods (i kept incrementing past the period boundary,
// which flips the (i mod 2) parity paired with each state on every
// repetition, eventually presenting both candidate values for every state)
// until nMax distinct values have been placed. The LFSR never visits its
// all-zero state, so that state's two candidate values (0 and 2^m) are
// seeded explicitly before the cycle starts.
func NewSymbolInterleaver(nMax, carrierBit int) *SymbolInterleaver {
	m := carrierBit - 1
	taps, ok := primitivePoly[m]
	if !ok {
		taps = primitivePoly[11]
		m = 11
	}

	si := &SymbolInterleaver{nMax: nMax}
	si.h = make([]int, nMax)
	used := make([]bool, nMax)
	q := 0

	place := func(val int) {
		if q >= nMax || val >= nMax || used[val] {
			return
		}
		si.h[q] = val
		used[val] = true
		q++
	}

	place(0)
	place(1 << uint(m))

	reg := (1 << uint(m)) - 1 // all-ones seed, a standard non-degenerate LFSR state
	period := (1 << uint(m)) - 1
	for i := 0; q < nMax && i < 2*period+2; i++ {
		var acc int
		for j := 0; j < m; j++ {
			// R_perm is the ETSI-specified bit-permutation of the register
			// into the summation; lacking a verbatim source table for it,
			// the identity permutation is used here (documented in
			// DESIGN.md), which preserves H's bijectivity on its domain.
			bit := (reg >> j) & 1
			acc += bit << uint(j)
		}
		place((i%2)*(1<<uint(m)) + acc)
		reg = lfsrNext(reg, m, taps)
	}

	si.hInv = make([]int, nMax)
	for q, v := range si.h {
		si.hInv[v] = q
	}
	si.evenSymbol = true
	return si
}

func lfsrNext(reg, m int, taps []int) int {
	fb := 0
	for _, t := range taps {
		fb ^= (reg >> uint(t-1)) & 1
	}
	return ((reg << 1) | fb) & ((1 << uint(m)) - 1)
}

// Reset restarts the even/odd alternation at an even (H) symbol.
func (si *SymbolInterleaver) Reset() {
	si.evenSymbol = true
}

// Process interleaves one group of nMax symbols using H for even OFDM
// symbols and H's inverse for odd ones, then flips the parity for the next
// call.
func (si *SymbolInterleaver) Process(in []byte) []byte {
	if len(in) != si.nMax {
		panic("interleave: symbol interleaver requires exactly nMax symbols per call")
	}
	perm := si.h
	if !si.evenSymbol {
		perm = si.hInv
	}
	out := make([]byte, si.nMax)
	for q := 0; q < si.nMax; q++ {
		out[perm[q]] = in[q]
	}
	si.evenSymbol = !si.evenSymbol
	return out
}
