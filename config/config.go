package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	localize "github.com/milosgajdos/go-localize"
	"github.com/milosgajdos/go-localize/particle/mcl"
	"github.com/milosgajdos/go-localize/sample"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// Systematic selects systematic resampling
	Systematic = "systematic"
	// Multinomial selects roulette wheel resampling
	Multinomial = "multinomial"
)

// maxFileSize is the largest accepted config file size.
const maxFileSize = 1 << 20

// Config is localizer run configuration.
type Config struct {
	// Particles is the number of filter particles
	Particles int `yaml:"particles"`
	// Workers limits weight update goroutines; 0 uses all CPUs
	Workers int `yaml:"workers"`
	// Seed seeds the random source of the filter
	Seed uint64 `yaml:"seed"`
	// SensorRange is landmark sensor range
	SensorRange float64 `yaml:"sensor_range"`
	// InitStd are initial pose standard deviations [x, y, theta]
	InitStd []float64 `yaml:"init_std"`
	// MotionStd are process noise standard deviations [x, y, theta]
	MotionStd []float64 `yaml:"motion_std"`
	// LandmarkStd are observation standard deviations [x, y]
	LandmarkStd []float64 `yaml:"landmark_std"`
	// NoMatchLikelihood is the likelihood of observations with no landmark in range.
	// Defaults to mcl.DefaultNoMatch when omitted.
	NoMatchLikelihood *float64 `yaml:"no_match_likelihood,omitempty"`
	// Resampler is either "systematic" or "multinomial"
	Resampler string `yaml:"resampler"`
	// Roughening scales resampling jitter; 0 disables it, negative uses optimal value
	Roughening float64 `yaml:"roughening"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Particles:   100,
		Seed:        1,
		SensorRange: 50,
		InitStd:     []float64{0.3, 0.3, 0.01},
		MotionStd:   []float64{0.3, 0.3, 0.01},
		LandmarkStd: []float64{0.3, 0.3},
		Resampler:   Systematic,
		LogLevel:    "info",
	}
}

// Load loads configuration from the YAML file at path.
// Fields omitted from the file keep their default values.
// It returns error if the file can't be read, parsed or contains invalid values.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode decodes YAML configuration from r on top of the default configuration.
// It returns error if the YAML is malformed or the resulting configuration is invalid.
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

// Validate returns error if any of the configuration values is invalid.
func (c *Config) Validate() error {
	if c.Particles <= 0 {
		return fmt.Errorf("invalid particle count: %d", c.Particles)
	}

	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}

	if !(c.SensorRange >= 0) || math.IsInf(c.SensorRange, 0) {
		return fmt.Errorf("invalid sensor range: %v", c.SensorRange)
	}

	for _, std := range []struct {
		name string
		vals []float64
		size int
	}{
		{name: "init_std", vals: c.InitStd, size: 3},
		{name: "motion_std", vals: c.MotionStd, size: 3},
		{name: "landmark_std", vals: c.LandmarkStd, size: 2},
	} {
		if len(std.vals) != std.size {
			return fmt.Errorf("invalid %s size: %d, expected: %d", std.name, len(std.vals), std.size)
		}
		for _, v := range std.vals {
			if !(v >= 0) || math.IsInf(v, 0) {
				return fmt.Errorf("invalid %s value: %v", std.name, v)
			}
		}
	}

	for _, v := range c.LandmarkStd {
		if v == 0 {
			return fmt.Errorf("invalid landmark_std value: %v", v)
		}
	}

	if nm := c.NoMatch(); !(nm >= 0) || math.IsInf(nm, 0) {
		return fmt.Errorf("invalid no_match_likelihood: %v", nm)
	}

	if _, err := c.resampler(); err != nil {
		return err
	}

	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	return nil
}

// NoMatch returns configured no match likelihood or its default value.
func (c *Config) NoMatch() float64 {
	if c.NoMatchLikelihood == nil {
		return mcl.DefaultNoMatch
	}

	return *c.NoMatchLikelihood
}

// InitPose returns initial pose standard deviations.
func (c *Config) InitPose() [3]float64 {
	var std [3]float64
	copy(std[:], c.InitStd)

	return std
}

// Driver returns filter driver configuration logging to log.
func (c *Config) Driver(log *zap.Logger) (*mcl.Config, error) {
	r, err := c.resampler()
	if err != nil {
		return nil, err
	}

	fc := &mcl.Config{
		ParticleCount: c.Particles,
		Workers:       c.Workers,
		SensorRange:   c.SensorRange,
		NoMatch:       c.NoMatch(),
		Resampler:     r,
		Roughening:    c.Roughening,
		Logger:        log,
	}
	copy(fc.StdPos[:], c.MotionStd)
	copy(fc.StdLandmark[:], c.LandmarkStd)

	return fc, nil
}

func (c *Config) resampler() (localize.Resampler, error) {
	switch strings.ToLower(c.Resampler) {
	case Systematic, "":
		return sample.Systematic{}, nil
	case Multinomial:
		return sample.Multinomial{}, nil
	default:
		return nil, fmt.Errorf("unknown resampler: %q", c.Resampler)
	}
}

// NewLogger creates a JSON logger writing to stderr at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	config := zap.Config{
		Level:            lvl,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	return config.Build()
}
