package config

import (
	"os"
	"path/filepath"

	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/go-go-golems/apexlog/pkg/truncation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFilename = ".apexlog.yaml"

type File struct {
	MaxEvents            int     `yaml:"max_events,omitempty"`
	MaxLineLength        int     `yaml:"max_line_length,omitempty"`
	SizeCeilingBytes     int64   `yaml:"size_ceiling_bytes,omitempty"`
	SizeThresholdPercent float64 `yaml:"size_threshold_percent,omitempty"`

	// Scripts are event filter modules loaded by the CLI; relative paths
	// resolve against the config file's directory.
	Scripts []string `yaml:"scripts,omitempty"`
}

func DefaultPath(dir string) string {
	return filepath.Join(dir, DefaultConfigFilename)
}

func LoadFromFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var cfg File
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	base := filepath.Dir(path)
	for i, s := range cfg.Scripts {
		if !filepath.IsAbs(s) {
			cfg.Scripts[i] = filepath.Join(base, s)
		}
	}
	return &cfg, nil
}

func LoadOptional(path string) (*File, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, errors.Wrap(err, "stat config")
	}
	return LoadFromFile(path)
}

func (f *File) Validate() error {
	switch {
	case f.MaxEvents < 0:
		return errors.Errorf("max_events must not be negative, got %d", f.MaxEvents)
	case f.MaxLineLength < 0:
		return errors.Errorf("max_line_length must not be negative, got %d", f.MaxLineLength)
	case f.SizeCeilingBytes < 0:
		return errors.Errorf("size_ceiling_bytes must not be negative, got %d", f.SizeCeilingBytes)
	case f.SizeThresholdPercent < 0 || f.SizeThresholdPercent > 100:
		return errors.Errorf("size_threshold_percent must be within 0..100, got %g", f.SizeThresholdPercent)
	}
	return nil
}

// Options converts the file to parser options. Zero values fall back to the
// parser's defaults.
func (f *File) Options() parser.Options {
	return parser.Options{
		MaxEvents:     f.MaxEvents,
		MaxLineLength: f.MaxLineLength,
		Truncation: truncation.Options{
			SizeCeilingBytes: f.SizeCeilingBytes,
			ThresholdPercent: f.SizeThresholdPercent,
		},
	}
}
