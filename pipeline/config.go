package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML shape for a pipeline.Config, following the
// same load-then-override pattern direwolf's YAML device-id config uses:
// fields are optional and only override defaults supplied by the caller.
type FileConfig struct {
	QAMMapping         int  `yaml:"qammapping"`
	HPCodeRate         int  `yaml:"hpcoderate"`
	LPCodeRate         int  `yaml:"lpcoderate"`
	OFDMMode           int  `yaml:"ofdmmode"`
	DeltaMode          int  `yaml:"deltamode"`
	CellID             int  `yaml:"cellid"`
	HierarchyMode      int  `yaml:"hyerarchymode"`
	InDepthInterleaver bool `yaml:"indepthinterleaver"`

	OutPower      float64 `yaml:"outpower"`
	DACSampleRate float64 `yaml:"dacsamplerate"`
	PowerFile     string  `yaml:"powerfile"`
	PowerInterval float64 `yaml:"powerinterval"` // seconds

	ResampleOutRate float64 `yaml:"resampleoutrate"`

	Stopband     float64 `yaml:"stopband"`
	ShapingAtten float64 `yaml:"attenuation"`

	ScramblerReportInterval float64 `yaml:"scramblerreportinterval"` // seconds
	Debug                   bool    `yaml:"debug"`
}

// Default returns the baseline configuration: 2K mode, 64-QAM, rate 3/4,
// 1/32 guard interval, no cell-id, no resampling or shaping.
func Default() Config {
	return Config{
		QAMMapping:              64,
		HPCodeRate:              34,
		LPCodeRate:              34,
		OFDMMode:                2048,
		DeltaMode:               32,
		CellID:                  -1,
		OutPower:                10,
		ScramblerReportInterval: 10 * time.Second,
	}
}

// LoadFile reads a YAML configuration file and applies its fields onto cfg,
// returning the merged result. A zero-valued field in the file is treated
// as "not set" and leaves cfg's value untouched, except for CellID where 0
// is a valid id: CellID is applied whenever the file sets it (use -1 in the
// file to disable it explicitly), and kept from cfg when the file omits it.
func LoadFile(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("pipeline: reading config file: %w", err)
	}
	// Pre-set CellID so a file without a cellid key leaves cfg's value.
	fc := FileConfig{CellID: cfg.CellID}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("pipeline: parsing config file: %w", err)
	}

	if fc.QAMMapping != 0 {
		cfg.QAMMapping = fc.QAMMapping
	}
	if fc.HPCodeRate != 0 {
		cfg.HPCodeRate = fc.HPCodeRate
	}
	if fc.LPCodeRate != 0 {
		cfg.LPCodeRate = fc.LPCodeRate
	}
	if fc.OFDMMode != 0 {
		cfg.OFDMMode = fc.OFDMMode
	}
	if fc.DeltaMode != 0 {
		cfg.DeltaMode = fc.DeltaMode
	}
	cfg.CellID = fc.CellID
	if fc.HierarchyMode != 0 {
		cfg.HierarchyMode = fc.HierarchyMode
	}
	cfg.InDepthInterleaver = cfg.InDepthInterleaver || fc.InDepthInterleaver
	if fc.OutPower != 0 {
		cfg.OutPower = fc.OutPower
	}
	if fc.DACSampleRate != 0 {
		cfg.DACSampleRate = fc.DACSampleRate
	}
	if fc.PowerFile != "" {
		cfg.PowerFile = fc.PowerFile
	}
	if fc.PowerInterval != 0 {
		cfg.PowerInterval = time.Duration(fc.PowerInterval * float64(time.Second))
	}
	if fc.ResampleOutRate != 0 {
		cfg.ResampleOutRate = fc.ResampleOutRate
	}
	if fc.Stopband != 0 {
		cfg.Stopband = fc.Stopband
	}
	if fc.ShapingAtten != 0 {
		cfg.ShapingAtten = fc.ShapingAtten
	}
	if fc.ScramblerReportInterval != 0 {
		cfg.ScramblerReportInterval = time.Duration(fc.ScramblerReportInterval * float64(time.Second))
	}
	cfg.Debug = cfg.Debug || fc.Debug

	return cfg, nil
}
