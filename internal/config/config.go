package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ryo246912/gh-pr-code-metrics/internal/validate"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "PRMETRICS_CONFIG"
	EnvStrict     = "PRMETRICS_STRICT"
	EnvFormat     = "PRMETRICS_FORMAT"

	ConfigVersion = "1"
)

var ErrConfig = errors.New("invalid configuration")

// Config is the YAML configuration file layout
type Config struct {
	Version  string           `yaml:"version"`
	Validate validate.Options `yaml:"validate"`
	// Format is the default validate output: table, json or yaml.
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Version:  ConfigVersion,
		Validate: validate.DefaultOptions(),
		Format:   "table",
	}
}

// Load reads .env files (missing ones are ignored), then the YAML file at path
// or $PRMETRICS_CONFIG, then applies environment overrides
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadEnv(envFiles...); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		defer f.Close()
		if cfg, err = Decode(f); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads a YAML configuration on top of the defaults
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if cfg.Version != ConfigVersion {
		return Config{}, fmt.Errorf("%w: unsupported version %q", ErrConfig, cfg.Version)
	}
	if err := checkFormat(cfg.Format); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %v", ErrConfig, f, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv(EnvStrict)); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfig, EnvStrict, err)
		}
		cfg.Validate.Strict = strict
	}
	if raw := strings.TrimSpace(os.Getenv(EnvFormat)); raw != "" {
		if err := checkFormat(raw); err != nil {
			return err
		}
		cfg.Format = raw
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "table", "json", "yaml":
		return nil
	}
	return fmt.Errorf("%w: unknown format %q, want table, json or yaml", ErrConfig, format)
}

// Write encodes cfg as YAML
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
