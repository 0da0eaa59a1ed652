// Package sink drives a HackRF transmitter from a bounded stream of
// baseband IQ blocks, buffering ahead of the device's pull-based transfer
// callback the way the satellite transmitter's main loop buffers ahead of
// StartTX, generalised into a reusable producer/consumer component with a
// bounded channel standing in for the boost mutex/condition-variable ring
// buffer the original DVB-T USRP sink used.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/samuel/go-hackrf/hackrf"
)

// Config holds the HackRF device parameters.
type Config struct {
	FreqHz      uint64
	SampleRate  float64
	TXVGAGain   int
	AmpEnable   bool
	DigitalGain float64 // scales normalised IQ samples before int8 quantisation
	QueueBlocks int     // number of in-flight IQ blocks the ring buffer holds
	Debug       bool
}

// Sink owns the HackRF device handle and the bounded channel of pending IQ
// blocks; Write enqueues, a background goroutine drains into StartTX.
type Sink struct {
	cfg Config
	dev *hackrf.Device

	queue  chan []complex128
	cancel context.CancelFunc

	current    []complex128
	currentIdx int
}

// Open initialises the HackRF library, opens the first device, configures
// it per cfg, and starts the transfer loop.
func Open(cfg Config) (*Sink, error) {
	if cfg.QueueBlocks <= 0 {
		cfg.QueueBlocks = 64
	}
	if cfg.DigitalGain <= 0 {
		cfg.DigitalGain = 110.0
	}

	if err := hackrf.Init(); err != nil {
		return nil, fmt.Errorf("sink: hackrf.Init: %w", err)
	}
	dev, err := hackrf.Open()
	if err != nil {
		return nil, fmt.Errorf("sink: hackrf.Open: %w", err)
	}

	dev.SetFreq(cfg.FreqHz)
	dev.SetSampleRate(cfg.SampleRate)
	dev.SetTXVGAGain(cfg.TXVGAGain)
	dev.SetAmpEnable(cfg.AmpEnable)

	s := &Sink{cfg: cfg, dev: dev, queue: make(chan []complex128, cfg.QueueBlocks)}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	err = dev.StartTX(func(buf []byte) error {
		select {
		case <-ctx.Done():
			return errors.New("sink: transfer cancelled")
		default:
		}
		if !s.fillBuffer(ctx, buf) {
			return errors.New("sink: transfer cancelled")
		}
		return nil
	})
	if err != nil {
		cancel()
		dev.Close()
		return nil, fmt.Errorf("sink: StartTX: %w", err)
	}
	return s, nil
}

// fillBuffer quantises queued IQ blocks into the device's int8 IQ transfer
// buffer, blocking the underlying callback goroutine on an empty queue
// exactly as the original ring buffer blocked its consumer thread. It
// returns false if ctx is cancelled while waiting on the queue, so Close
// never joins a callback stuck on a block that will never arrive.
func (s *Sink) fillBuffer(ctx context.Context, buf []byte) bool {
	need := len(buf) / 2
	for i := 0; i < need; i++ {
		if s.current == nil || s.currentIdx >= len(s.current) {
			select {
			case s.current = <-s.queue:
			case <-ctx.Done():
				return false
			}
			s.currentIdx = 0
		}
		sample := s.current[s.currentIdx]
		s.currentIdx++

		iSample := int8(real(sample) * s.cfg.DigitalGain)
		qSample := int8(imag(sample) * s.cfg.DigitalGain)
		buf[i*2] = byte(iSample)
		buf[i*2+1] = byte(qSample)
	}
	return true
}

// Write enqueues one block of normalised complex IQ samples, blocking if
// the queue is full (the ring buffer's back-pressure on the producer).
func (s *Sink) Write(block []complex128) {
	s.queue <- block
	if s.cfg.Debug {
		log.Printf("sink: queued block of %d samples (%d blocks pending)", len(block), len(s.queue))
	}
}

// Close stops the transmit transfer and releases the device.
func (s *Sink) Close() error {
	s.cancel()
	s.dev.StopTX()
	return s.dev.Close()
}
