package config

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileSystem is the file access Load needs.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Load builds a Config from defaults, the file at path (if path is not
// empty), and EPICENTER_* environment variables, in that order of
// precedence. The result is validated.
func Load(path string) (*Config, error) {
	return LoadFS(OSFS{}, path, nil)
}

// LoadFS is Load with an explicit file system and environment.
// A nil environment reads the process environment.
func LoadFS(fsys FileSystem, path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(fsys, path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, environ); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(fsys FileSystem, path string, cfg *Config) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(ErrFileNotFound, path)
		}
		return errors.Wrapf(err, "reading config file %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return tomlParseError(path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return errors.Errorf("unsupported config format %q for %s", ext, path)
	}
	return nil
}

func tomlParseError(path string, err error) error {
	perr := &ParseError{Path: path, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, _ := derr.Position()
		perr.Line = row
		perr.Message = derr.Error()
	}
	return perr
}

// applyEnv overrides each section from the environment. Scripts have no
// environment form.
func applyEnv(cfg *Config, environ map[string]string) error {
	sections := []struct {
		prefix string
		target any
	}{
		{"DISPATCH_", &cfg.Dispatch},
		{"LOG_", &cfg.Log},
		{"TRACE_", &cfg.Trace},
		{"JOURNAL_", &cfg.Journal},
	}

	for _, s := range sections {
		opts := env.Options{Prefix: EnvPrefix + s.prefix}
		if environ != nil {
			opts.Environment = environ
		}
		if err := env.ParseWithOptions(s.target, opts); err != nil {
			return errors.Wrap(err, "parse env")
		}
	}
	return nil
}
