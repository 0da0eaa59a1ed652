// Package mapper implements stage 8 of the DVB-T1 transmit chain: the Gray
// coded QAM mapper (QPSK / 16-QAM / 64-QAM), with optional non-uniform
// (hierarchical) constellation spacing and unit-average-energy scaling.
package mapper

import (
	"fmt"
	"math"
)

// Mapper converts nu-bit symbol elements (one per input octet, low-order
// nu bits) into unit-average-energy complex constellation points.
type Mapper struct {
	nu    int // bits per constellation point: 2, 4 or 6
	alpha int // hierarchical spacing parameter; 1 = uniform (the only mode this system drives)
	scale float64
}

// New creates a Mapper for the given constellation size (4, 16 or 64) and
// hierarchical spacing alpha (1, 2 or 4; 1 for the non-hierarchical mode
// this system implements).
func New(qamMapping, alpha int) (*Mapper, error) {
	var nu int
	switch qamMapping {
	case 4:
		nu = 2
	case 16:
		nu = 4
	case 64:
		nu = 6
	default:
		return nil, fmt.Errorf("mapper: unsupported qammapping %d", qamMapping)
	}
	if alpha != 1 && alpha != 2 && alpha != 4 {
		return nil, fmt.Errorf("mapper: invalid alpha %d", alpha)
	}
	m := &Mapper{nu: nu, alpha: alpha}
	m.scale = 1 / energyNorm(nu, alpha)
	return m, nil
}

// Reset is a no-op: the mapper is stateless, kept only so Pipeline.Reset can
// reset every stage the same way.
func (m *Mapper) Reset() {}

// Nu returns the number of bits per constellation point (2, 4 or 6), the
// symbol width the upstream bit interleaver must be built for.
func (m *Mapper) Nu() int { return m.nu }

// grayDecode turns a Gray-coded k-bit value into its binary equivalent.
func grayDecode(g, k int) int {
	b := g
	for shift := 1; shift < k; shift <<= 1 {
		b ^= b >> shift
	}
	return b
}

// level maps a k-bit Gray-coded axis value to an odd-integer PAM level in
// {-(2^k-1), ..., -1, 1, ..., 2^k-1}, then expands it by the hierarchical
// spacing factor the way spec.md 4.8 describes: shift by (alpha-1)*sign(I).
func level(gray, k, alpha int) float64 {
	bin := grayDecode(gray, k)
	lvl := float64(2*bin + 1 - (1 << k))
	if alpha > 1 {
		if lvl > 0 {
			lvl += float64(alpha - 1)
		} else {
			lvl -= float64(alpha - 1)
		}
	}
	return lvl
}

// energyNorm computes sqrt(E) for the configured constellation, E being the
// mean squared magnitude over all 2^nu equiprobable points.
func energyNorm(nu, alpha int) float64 {
	k := nu / 2
	n := 1 << k
	var sumSq float64
	for i := 0; i < n; i++ {
		sumSq += level(i, k, alpha) * level(i, k, alpha)
	}
	meanPerAxis := sumSq / float64(n)
	e := 2 * meanPerAxis // I and Q axes contribute equally
	return math.Sqrt(e)
}

// Map converts a block of nu-bit symbol octets into complex128 constellation
// points, one per input element.
func (m *Mapper) Map(symbols []byte) []complex128 {
	k := m.nu / 2
	mask := (1 << k) - 1
	out := make([]complex128, len(symbols))
	for i, s := range symbols {
		iGray := int(s>>k) & mask
		qGray := int(s) & mask
		re := level(iGray, k, m.alpha) * m.scale
		im := level(qGray, k, m.alpha) * m.scale
		out[i] = complex(re, im)
	}
	return out
}
