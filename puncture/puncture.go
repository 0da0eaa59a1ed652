// Package puncture implements stage 5 of the DVB-T1 transmit chain: the
// selectable-rate puncturer that reduces the rate-1/2 encoder output to one
// of {1/2, 2/3, 3/4, 5/6, 7/8}.
package puncture

import (
	"fmt"

	"hackdvbs/consts"
)

// Puncturer holds the selected rate's window geometry and the partial-window
// carry used to resume across calls.
type Puncturer struct {
	rate consts.PuncturerRate

	window []byte // up to KIn bits held across calls
}

// New creates a Puncturer for one of the five rate codes: 12, 23, 34, 56, 78.
func New(rateCode int) (*Puncturer, error) {
	r, ok := consts.PuncturerRates[rateCode]
	if !ok {
		return nil, fmt.Errorf("puncture: unsupported rate code %d", rateCode)
	}
	return &Puncturer{rate: r}, nil
}

// Reset discards any partially filled window.
func (p *Puncturer) Reset() {
	p.window = p.window[:0]
}

// Process punctures a bit stream (one bit per octet), dropping all but the
// selected indices of each KIn-bit window. Output length is exactly
// floor((in+offset)/KIn)*KOut.
func (p *Puncturer) Process(in []byte) []byte {
	buf := append(p.window, in...)
	nWindows := len(buf) / p.rate.KIn
	out := make([]byte, 0, nWindows*p.rate.KOut)
	for w := 0; w < nWindows; w++ {
		base := w * p.rate.KIn
		for _, idx := range p.rate.Selected {
			out = append(out, buf[base+idx])
		}
	}
	p.window = append(p.window[:0], buf[nWindows*p.rate.KIn:]...)
	return out
}
