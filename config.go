package darlin

import (
	"fmt"
	"math/bits"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/consensys/gnark/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Config is the verifier configuration, stored as TOML.
type Config struct {
	Verifier     *VerifierConfig     `toml:"verifier"`
	HardPart     *HardPartConfig     `toml:"hard_part"`
	CommitterKey *CommitterKeyConfig `toml:"committer_key"`
	Log          *LogConfig          `toml:"log"`
}

type VerifierConfig struct {
	// Workers bounds the number of proofs succinctly verified at once; 0 means
	// one per CPU.
	Workers int `toml:"workers"`
}

func newDefaultVerifierConfig() *VerifierConfig {
	return &VerifierConfig{Workers: 0}
}

type HardPartConfig struct {
	// Accelerator is "none" or "icicle".
	Accelerator string `toml:"accelerator"`
	// NbTasks is the CPU parallelism of the multi-scalar multiplication; 0
	// lets gnark-crypto decide.
	NbTasks int `toml:"nb_tasks"`
}

func newDefaultHardPartConfig() *HardPartConfig {
	return &HardPartConfig{Accelerator: "none"}
}

type CommitterKeyConfig struct {
	Dir    string `toml:"dir"`
	SizeG1 int    `toml:"size_g1"`
	SizeG2 int    `toml:"size_g2"`
}

func newDefaultCommitterKeyConfig() *CommitterKeyConfig {
	return &CommitterKeyConfig{
		Dir:    DATA_CACHE_DIR,
		SizeG1: CK_SIZE_G1,
		SizeG2: CK_SIZE_G2,
	}
}

type LogConfig struct {
	Level string `toml:"level"`
}

func newDefaultLogConfig() *LogConfig {
	return &LogConfig{Level: "info"}
}

// NewDefaultConfig returns a config object with all the fields filled out to
// their default values
func NewDefaultConfig() *Config {
	return &Config{
		Verifier:     newDefaultVerifierConfig(),
		HardPart:     newDefaultHardPartConfig(),
		CommitterKey: newDefaultCommitterKeyConfig(),
		Log:          newDefaultLogConfig(),
	}
}

// WriteFile writes the config to the given filepath.
func (cfg *Config) WriteFile(file string) error {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if err := toml.NewEncoder(f).Encode(*cfg); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// ReadConfigFile reads a config file from disk. Missing keys keep their
// default values.
func ReadConfigFile(file string) (*Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := NewDefaultConfig()
	if _, err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	var result *multierror.Error
	if cfg.Verifier == nil || cfg.HardPart == nil || cfg.CommitterKey == nil || cfg.Log == nil {
		return multierror.Append(result, fmt.Errorf("missing config section"))
	}
	if cfg.Verifier.Workers < 0 {
		result = multierror.Append(result, fmt.Errorf("verifier.workers must be >= 0, got %d", cfg.Verifier.Workers))
	}
	switch cfg.HardPart.Accelerator {
	case "none", "icicle":
	default:
		result = multierror.Append(result, fmt.Errorf("hard_part.accelerator must be \"none\" or \"icicle\", got %q", cfg.HardPart.Accelerator))
	}
	if cfg.HardPart.NbTasks < 0 || cfg.HardPart.NbTasks > 1024 {
		result = multierror.Append(result, fmt.Errorf("hard_part.nb_tasks must be in [0, 1024], got %d", cfg.HardPart.NbTasks))
	}
	for name, size := range map[string]int{"size_g1": cfg.CommitterKey.SizeG1, "size_g2": cfg.CommitterKey.SizeG2} {
		if size < 2 || bits.OnesCount(uint(size)) != 1 {
			result = multierror.Append(result, fmt.Errorf("committer_key.%s must be a power of two >= 2, got %d", name, size))
		}
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level: %w", err))
	}
	return result.ErrorOrNil()
}

// workers resolves the worker count of the batch verifier.
func (cfg *Config) workers() int {
	if cfg.Verifier.Workers == 0 {
		return runtime.NumCPU()
	}
	return cfg.Verifier.Workers
}

// ApplyLogLevel installs the configured level on the gnark logger, which the
// whole module logs through.
func (cfg *Config) ApplyLogLevel() error {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.Set(logger.Logger().Level(level))
	return nil
}
