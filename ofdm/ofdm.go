// Package ofdm implements stage 10 of the DVB-T1 transmit chain: it turns
// one OFDM symbol's worth of active-carrier cells into a time-domain block
// (cyclic prefix + useful interval) via an inverse FFT, after applying a
// frequency precorrection term and an optional per-carrier power-loading
// factor.
package ofdm

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"hackdvbs/consts"
)

const referenceSampleRate = 64.0e6 / 7.0
const resampleOrder = 4 // matches the fractional interpolator's order, for precorrection consistency

// Config mirrors the OFDM modulator's externally visible parameters.
type Config struct {
	OFDMMode      int     // 2048, 4096 or 8192
	DeltaMode     int     // cyclic prefix denominator: 32, 16, 8 or 4
	OutPower      float64 // target percentage of output amplitude within [-1,1]
	DACSampleRate float64 // 0 disables precorrection
	PowerFile     string  // optional per-carrier power-loading file, dB per line
	PowerInterval time.Duration
	Debug         bool
}

// Modulator holds the precomputed precorrection/power-loading vectors and
// the FFT plan, plus the background power-loading reload goroutine.
type Modulator struct {
	cfg  Config
	mode consts.OFDMMode

	nDelta, nBlock int
	multFactor     float64

	precorr []complex128 // length nFFT, precorr[nFFT/2 + i] for carrier offset i

	amplitude atomic.Pointer[[]float64] // length nFFT, reloaded by the power-loading goroutine

	fft *plan

	stopPower chan struct{}
	wg        sync.WaitGroup
}

// New builds a Modulator for the given configuration, starting the
// power-loading reload goroutine if a power file is configured.
func New(cfg Config) (*Modulator, error) {
	mode, ok := consts.OFDMModes[cfg.OFDMMode]
	if !ok {
		return nil, fmt.Errorf("ofdm: unsupported OFDM mode %d", cfg.OFDMMode)
	}
	if cfg.OutPower <= 0 {
		cfg.OutPower = 10
	}
	if cfg.PowerInterval <= 0 {
		cfg.PowerInterval = time.Second
	}

	m := &Modulator{cfg: cfg, mode: mode}
	m.nDelta = mode.FFTSize / cfg.DeltaMode
	m.nBlock = mode.FFTSize + m.nDelta

	power := (1.0*float64(mode.DataCells) +
		(16.0/9.0)*float64(mode.ActiveK-mode.DataCells-mode.TPSCarrier) +
		1.0*float64(mode.TPSCarrier)) / float64(mode.FFTSize)
	m.multFactor = math.Sqrt((cfg.OutPower/100.0)/(power*float64(mode.FFTSize))) / 3.0

	m.precorr = buildPrecorrection(mode.FFTSize, mode.ActiveK, cfg.DACSampleRate)

	flat := make([]float64, mode.FFTSize)
	for i := range flat {
		flat[i] = 1.0
	}
	m.amplitude.Store(&flat)

	fft, err := newPlan(mode.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("ofdm: building FFT plan: %w", err)
	}
	m.fft = fft

	if cfg.PowerFile != "" {
		m.stopPower = make(chan struct{})
		m.wg.Add(1)
		go m.powerLoadingLoop()
	}
	return m, nil
}

// Close stops the power-loading reload goroutine, if one is running.
func (m *Modulator) Close() {
	if m.stopPower == nil {
		return
	}
	close(m.stopPower)
	m.wg.Wait()
}

// Reset is a no-op: the modulator carries no per-symbol state beyond the
// amplitude/precorrection tables, which survive a geometry-unchanged reset.
func (m *Modulator) Reset() {}

// Process synthesises one time-domain block from K active-carrier cells:
// places them into the FFT's positive/negative-frequency bins with
// precorrection and power loading applied, inverse-transforms, rescales for
// the configured output power, and prepends the cyclic prefix.
func (m *Modulator) Process(cells []complex128) ([]complex128, error) {
	if len(cells) != m.mode.ActiveK {
		return nil, fmt.Errorf("ofdm: expected %d active cells, got %d", m.mode.ActiveK, len(cells))
	}

	nFFT := m.mode.FFTSize
	numPos := m.mode.ActiveK/2 + 1
	numNeg := numPos - 1
	negStart := nFFT - numNeg
	half := nFFT / 2

	ampl := *m.amplitude.Load()

	bins := make([]complex128, nFFT)
	for i := 0; i < numPos; i++ {
		bins[i] = cells[numNeg+i] * m.precorr[half+i] * complex(ampl[half+i], 0)
	}
	for i := 0; i < numNeg; i++ {
		bins[negStart+i] = cells[i] * m.precorr[half-numNeg+i] * complex(ampl[half-numNeg+i], 0)
	}

	td := make([]complex128, nFFT)
	if err := m.fft.inverse(td, bins); err != nil {
		return nil, fmt.Errorf("ofdm: inverse FFT: %w", err)
	}

	out := make([]complex128, m.nBlock)
	for i, v := range td {
		td[i] = v * complex(m.multFactor, 0)
	}
	copy(out, td[nFFT-m.nDelta:])
	copy(out[m.nDelta:], td)
	return out, nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}

// frequencyResponseModulus evaluates |H(f)| for an FIR impulse response h
// sampled at interval dt, by direct DFT summation (the number of taps here
// is small enough that an FFT would not be worth the added bookkeeping).
func frequencyResponseModulus(h []float64, dt, f float64) float64 {
	var re, im float64
	arg := 2 * math.Pi * f * dt
	for i, v := range h {
		re += v * math.Cos(arg*float64(i)) * dt
		im += v * -math.Sin(arg*float64(i)) * dt
	}
	return math.Hypot(re, im)
}

// blackmanSinc builds a Blackman-windowed sinc low-pass impulse response
// spanning (order+1) main lobes of extent T, sampled at dt.
func blackmanSinc(t, dt float64, order int) []float64 {
	n0 := int(math.Floor(t / dt))
	n := (order + 1) * n0
	const a0, a1, a2 = 7938.0 / 18608.0, 9240.0 / 18608.0, 1430.0 / 18608.0
	h := make([]float64, n)
	for i := 0; i < n; i++ {
		w := a0 - a1*math.Cos(2*math.Pi*float64(i)/float64(n-1)) + a2*math.Cos(4*math.Pi*float64(i)/float64(n-1))
		h[i] = w * sinc(math.Pi*(float64(i)-float64(n)/2)*dt/t)
	}
	return h
}

// buildPrecorrection computes rho_k, the linear amplitude precorrection
// that compensates the fractional-rate interpolator's passband droop. When
// dacSampleRate is the reference rate (or zero, disabling the interpolator
// path entirely) no precorrection is needed.
func buildPrecorrection(nFFT, activeK int, dacSampleRate float64) []complex128 {
	precorr := make([]complex128, nFFT)
	numPos := activeK/2 + 1
	numNeg := numPos - 1
	half := nFFT / 2

	if dacSampleRate == 0 || dacSampleRate == referenceSampleRate {
		for i := -numNeg; i < numPos; i++ {
			precorr[half+i] = complex(1, 0)
		}
		return precorr
	}

	dtBase := (1.0 / referenceSampleRate) / 100.0
	hBase := blackmanSinc(1.0/referenceSampleRate, dtBase, resampleOrder)

	var center float64 = 1
	for i := -numNeg; i < numPos; i++ {
		f := float64(i) * referenceSampleRate / float64(nFFT)
		mag := frequencyResponseModulus(hBase, dtBase, f)
		val := 1.0
		if mag != 0 {
			val = 1.0 / mag
		}
		precorr[half+i] = complex(val, 0)
		if i == 0 {
			center = val
		}
	}
	for i := -numNeg; i < numPos; i++ {
		precorr[half+i] /= complex(center, 0)
	}
	return precorr
}

// powerLoadingLoop periodically reloads the per-carrier power correction
// file (one dB value per FFT bin, lowest frequency first) until Close is
// called.
func (m *Modulator) powerLoadingLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.PowerInterval)
	defer ticker.Stop()

	m.reloadPowerFile()
	for {
		select {
		case <-m.stopPower:
			return
		case <-ticker.C:
			m.reloadPowerFile()
		}
	}
}

func (m *Modulator) reloadPowerFile() {
	f, err := os.Open(m.cfg.PowerFile)
	if err != nil {
		return
	}
	defer f.Close()

	nFFT := m.mode.FFTSize
	vals := make([]float64, nFFT)
	for i := range vals {
		vals[i] = 1.0
	}

	scanner := bufio.NewScanner(f)
	for i := 0; i < nFFT && scanner.Scan(); i++ {
		db, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			continue
		}
		vals[i] = math.Pow(10, db/20.0)
	}
	m.amplitude.Store(&vals)
}
