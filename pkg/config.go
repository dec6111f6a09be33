package pyro

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Backend string

const (
	BackendGo   Backend = "go"
	BackendLLVM Backend = "llvm"
)

// Extension is the file extension of the text the backend emits.
func (b Backend) Extension() string {
	if b == BackendLLVM {
		return ".ll"
	}

	return ".go"
}

type ToolchainConfig struct {
	Go    string `yaml:"go"`
	Clang string `yaml:"clang"`
}

// Config is read from pyro.yaml. Fields missing from the file keep their
// defaults.
type Config struct {
	Backend   Backend         `yaml:"backend"`
	OutputDir string          `yaml:"output_dir"`
	Toolchain ToolchainConfig `yaml:"toolchain"`
	LogLevel  string          `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Backend:   BackendGo,
		OutputDir: "pyro/output",
		Toolchain: ToolchainConfig{
			Go:    "go",
			Clang: "clang",
		},
		LogLevel: "info",
	}
}

// LoadConfig reads path over the defaults and validates the result. A
// missing file is not an error.
func LoadConfig(path string) (Config, error) {
	c, err := ReadConfig(path)
	if err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}

	return c, nil
}

// ReadConfig is LoadConfig without validation, for callers that override
// fields before validating.
func ReadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	c, err := DecodeConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}

	return c, nil
}

func ParseConfig(data []byte) (Config, error) {
	c, err := DecodeConfig(data)
	if err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// DecodeConfig decodes yaml over the defaults.
func DecodeConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "decode yaml")
	}

	return c, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendGo, BackendLLVM:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}

	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, errors.Wrapf(err, "log_level %q", c.LogLevel)
	}

	return level, nil
}
