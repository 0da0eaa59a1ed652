package consts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestBuildBalancedTables_ReproducesKnownContinualPilotCounts checks the
// synthesized 4K/8K continual-pilot counts against ETSI EN 300 744's known
// values (89 and 177), the cross-check the derivation in pilots.go's doc
// comment was validated against.
func TestBuildBalancedTables_ReproducesKnownContinualPilotCounts(t *testing.T) {
	cases := []struct {
		mode      int
		wantCount int
	}{
		{4096, 89},
		{8192, 177},
	}
	for _, c := range cases {
		m := OFDMModes[c.mode]
		cont, _ := buildBalancedTables(m.ActiveK, m.DataCells, m.TPSCarrier)
		assert.Len(t, cont, c.wantCount, "mode %d", c.mode)
	}
}

// TestBuildBalancedTables_TPSCountMatchesMode checks the synthesized TPS
// carrier count equals consts.OFDMMode.TPSCarrier, and that the tables
// never overlap (no carrier index is both a continual pilot and a TPS
// carrier).
func TestBuildBalancedTables_TPSCountMatchesMode(t *testing.T) {
	for _, modeKey := range []int{4096, 8192} {
		m := OFDMModes[modeKey]
		cont, tps := buildBalancedTables(m.ActiveK, m.DataCells, m.TPSCarrier)
		assert.Len(t, tps, m.TPSCarrier, "mode %d", modeKey)

		seen := make(map[int]bool, len(cont))
		for _, k := range cont {
			seen[k] = true
		}
		for _, k := range tps {
			assert.False(t, seen[k], "mode %d: carrier %d claimed by both continual-pilot and TPS tables", modeKey, k)
		}
	}
}

// TestBuildBalancedTables_ReservedCellCountIsPhaseInvariant is the
// property framer.Process actually depends on: across every scattered-
// pilot phase (symbol index mod 4), the number of reserved (continual
// pilot, TPS or pure scattered-pilot) cells on an OFDM symbol must be
// identical, or the data-cell budget per symbol would vary and
// framer.Process's di != len(data) check would trip.
func TestBuildBalancedTables_ReservedCellCountIsPhaseInvariant(t *testing.T) {
	for _, modeKey := range []int{2048, 4096, 8192} {
		m := OFDMModes[modeKey]
		cont := ContinualPilots(modeKey)
		tps := TPSPositions(modeKey)

		contSet := make(map[int]bool, len(cont))
		for _, k := range cont {
			contSet[k] = true
		}
		tpsSet := make(map[int]bool, len(tps))
		for _, k := range tps {
			tpsSet[k] = true
		}

		for phase := 0; phase < 4; phase++ {
			reserved := 0
			for k := 0; k < m.ActiveK; k++ {
				isScattered := k%12 == 3*phase
				if contSet[k] || tpsSet[k] || isScattered {
					reserved++
				}
			}
			assert.Equal(t, m.ActiveK-m.DataCells, reserved, "mode %d phase %d: reserved cell count must equal ActiveK-DataCells", modeKey, phase)
		}
	}
}
