// Command dvbt1tx reads an MPEG transport stream and transmits it as a
// DVB-T1 OFDM signal over a HackRF device, generalising the satellite
// transmitter's fixed test_stream.ts/HackRF main loop into a configurable
// terrestrial chain.
package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"

	"hackdvbs/consts"
	"hackdvbs/pipeline"
	"hackdvbs/sink"
	"hackdvbs/utils"
)

const readChunkPackets = 512 // TS packets read per pipeline.Process call

func main() {
	input := pflag.StringP("input", "i", "test_stream.ts", "Input MPEG transport stream file.")
	configFile := pflag.StringP("config", "c", "", "YAML configuration file overriding the defaults.")
	qamMapping := pflag.Int("qammapping", 0, "QAM constellation size: 4, 16 or 64 (0 keeps the config default).")
	hpCodeRate := pflag.Int("hpcoderate", 0, "Inner code rate: 12, 23, 34, 56 or 78 (0 keeps the config default).")
	ofdmMode := pflag.Int("ofdmmode", 0, "OFDM mode: 2048, 4096 or 8192 (0 keeps the config default).")
	deltaMode := pflag.Int("deltamode", 0, "Guard interval denominator: 32, 16, 8 or 4 (0 keeps the config default).")
	hierarchyMode := pflag.Int("hyerarchymode", 0, "Hierarchical modulation mode: 0, 1, 2 or 4. Only 0 (non-hierarchical) is implemented.")
	inDepthInterleaver := pflag.Bool("indepthinterleaver", false, "Reserved; must be false.")
	freqMHz := pflag.Float64("freq", 650.0, "Transmit frequency in MHz.")
	gain := pflag.Int("gain", 30, "TX VGA gain (0-47).")
	noTransmit := pflag.Bool("no-transmit", false, "Run the pipeline without opening a HackRF device (for testing).")
	debug := pflag.BoolP("debug", "d", false, "Enable debug logging across all stages.")
	pflag.Parse()

	cfg := pipeline.Default()
	if *configFile != "" {
		var err error
		cfg, err = pipeline.LoadFile(*configFile, cfg)
		if err != nil {
			log.Fatalf("dvbt1tx: %v", err)
		}
	}
	if *qamMapping != 0 {
		cfg.QAMMapping = *qamMapping
	}
	if *hpCodeRate != 0 {
		cfg.HPCodeRate = *hpCodeRate
		cfg.LPCodeRate = *hpCodeRate
	}
	if *ofdmMode != 0 {
		cfg.OFDMMode = *ofdmMode
	}
	if *deltaMode != 0 {
		cfg.DeltaMode = *deltaMode
	}
	if *hierarchyMode != 0 {
		cfg.HierarchyMode = *hierarchyMode
	}
	cfg.InDepthInterleaver = cfg.InDepthInterleaver || *inDepthInterleaver
	cfg.Debug = cfg.Debug || *debug

	p, err := pipeline.New(cfg)
	if err != nil {
		log.Fatalf("dvbt1tx: building pipeline: %v", err)
	}
	defer p.Close()

	tsFile, err := os.Open(*input)
	if err != nil {
		log.Fatalf("dvbt1tx: opening %s: %v", *input, err)
	}
	defer tsFile.Close()

	// The resampler is optional (ResampleOutRate == 0 means "disabled"), in
	// which case the DAC runs at the pipeline's configured DAC rate, or the
	// ETSI reference rate if that too is unset.
	dacRate := cfg.ResampleOutRate
	if dacRate <= 0 {
		dacRate = cfg.DACSampleRate
	}
	if dacRate <= 0 {
		dacRate = consts.DefaultDACSampleRate
	}

	var txSink *sink.Sink
	if !*noTransmit {
		txSink, err = sink.Open(sink.Config{
			FreqHz:     uint64(*freqMHz * 1_000_000),
			SampleRate: dacRate,
			TXVGAGain:  *gain,
			AmpEnable:  true,
			Debug:      cfg.Debug,
		})
		if err != nil {
			log.Fatalf("dvbt1tx: opening HackRF sink: %v", err)
		}
		defer txSink.Close()
	}

	log.Printf("dvbt1tx: transmitting %s (QAM%d, rate %d, OFDM%d, guard 1/%d)",
		*input, cfg.QAMMapping, cfg.HPCodeRate, cfg.OFDMMode, cfg.DeltaMode)

	go run(tsFile, p, txSink, cfg.Debug)

	utils.WaitForSignal()
	log.Println("dvbt1tx: stopping")
}

// run streams TS bytes through the pipeline, forwarding IQ samples to the
// sink (or discarding them in -no-transmit mode) until EOF or an error.
func run(r io.Reader, p *pipeline.Pipeline, txSink *sink.Sink, debug bool) {
	buf := make([]byte, readChunkPackets*188)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			samples, procErr := p.Process(buf[:n])
			if procErr != nil {
				log.Fatalf("dvbt1tx: pipeline error: %v", procErr)
			}
			if txSink != nil && len(samples) > 0 {
				txSink.Write(samples)
			} else if debug && len(samples) > 0 {
				log.Printf("dvbt1tx: generated %d samples (no-transmit mode)", len(samples))
			}
		}
		if err == io.EOF {
			log.Println("dvbt1tx: reached end of input stream")
			return
		}
		if err != nil {
			log.Fatalf("dvbt1tx: reading input: %v", err)
		}
	}
}
