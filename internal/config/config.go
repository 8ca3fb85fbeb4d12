// Package config loads session defaults from a YAML file. Flags given on the
// command line win over anything configured here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BPM           float64   `yaml:"bpm"`
	PPQN          int       `yaml:"ppqn"`
	TimeSignature Signature `yaml:"time_signature"`
	PollInterval  Duration  `yaml:"poll_interval"`
	Lookahead     Duration  `yaml:"lookahead"`
	Output        Output    `yaml:"output"`
}

// Duration decodes YAML strings like "25ms" as well as plain nanosecond
// counts.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library's duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Signature struct {
	Beats int `yaml:"beats"`
	Unit  int `yaml:"unit"`
}

type Output struct {
	Port   string  `yaml:"port"`
	Synth  bool    `yaml:"synth"`
	Wave   string  `yaml:"wave"`
	Volume float64 `yaml:"volume"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BPM:           120,
		PPQN:          48,
		TimeSignature: Signature{Beats: 4, Unit: 4},
		PollInterval:  Duration(25 * time.Millisecond),
		Lookahead:     Duration(100 * time.Millisecond),
		Output: Output{
			Wave:   "sine",
			Volume: 0.3,
		},
	}
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "topos", "topos.yml")
}

// Load reads the file at path, layered over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.BPM <= 0 {
		cfg.BPM = Default().BPM
	}
	if cfg.PPQN < 1 {
		cfg.PPQN = Default().PPQN
	}
	if cfg.TimeSignature.Beats < 1 || cfg.TimeSignature.Unit < 1 {
		cfg.TimeSignature = Default().TimeSignature
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = Default().PollInterval
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = Default().Lookahead
	}
	return cfg, nil
}
