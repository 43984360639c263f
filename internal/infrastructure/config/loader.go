package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".ngr.yaml"

type Loader struct{}

type fileConfig struct {
	Prefer      []string          `yaml:"prefer,omitempty"`
	Timeout     string            `yaml:"timeout,omitempty"`
	GracePeriod string            `yaml:"grace-period,omitempty"`
	Capture     string            `yaml:"capture,omitempty"`
	Parallel    int               `yaml:"parallel,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	EnvFiles    []string          `yaml:"env-files,omitempty"`
	Options     fileOptions       `yaml:"options,omitempty"`
}

type fileOptions struct {
	WrapperRegenerate bool   `yaml:"wrapper-regenerate,omitempty"`
	ToolVersion       string `yaml:"tool-version,omitempty"`
	DotnetVersion     string `yaml:"dotnet-version,omitempty"`
	NpgsqlVersion     string `yaml:"npgsql-version,omitempty"`
	AcceptNoVenv      bool   `yaml:"accept-no-venv,omitempty"`
	Task              string `yaml:"task,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() application.Config {
	return application.Config{
		Capture:  application.CaptureStream,
		Parallel: 1,
	}
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l Loader) Load(path string) (application.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return application.Config{}, fmt.Errorf("%w: %s", application.ErrConfigNotFound, path)
		}
		return application.Config{}, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return application.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := Default()
	for _, p := range fc.Prefer {
		cfg.Prefer = append(cfg.Prefer, domain.Ecosystem(p))
	}
	if cfg.Timeout, err = parseDuration("timeout", fc.Timeout); err != nil {
		return application.Config{}, err
	}
	if cfg.GracePeriod, err = parseDuration("grace-period", fc.GracePeriod); err != nil {
		return application.Config{}, err
	}
	if fc.Capture != "" {
		cfg.Capture = application.CaptureMode(fc.Capture)
	}
	if fc.Parallel != 0 {
		cfg.Parallel = fc.Parallel
	}
	cfg.Env = fc.Env
	cfg.EnvFiles = fc.EnvFiles
	cfg.Options = domain.Options{
		WrapperRegenerate: fc.Options.WrapperRegenerate,
		ToolVersion:       fc.Options.ToolVersion,
		DotnetVersion:     fc.Options.DotnetVersion,
		NpgsqlVersion:     fc.Options.NpgsqlVersion,
		AcceptNoVenv:      fc.Options.AcceptNoVenv,
		Task:              fc.Options.Task,
	}

	if err := Validate(cfg); err != nil {
		return application.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the loader and the command line cannot type-check.
func Validate(cfg application.Config) error {
	switch cfg.Capture {
	case application.CaptureBuffer, application.CaptureStream, "":
	default:
		return fmt.Errorf("invalid capture mode %q (want buffer or stream)", cfg.Capture)
	}
	if cfg.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative")
	}
	if cfg.Timeout < 0 || cfg.GracePeriod < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func Write(w io.Writer, cfg application.Config) error {
	out := fileConfig{
		Capture:  string(cfg.Capture),
		Parallel: cfg.Parallel,
		Env:      cfg.Env,
		EnvFiles: cfg.EnvFiles,
		Options: fileOptions{
			WrapperRegenerate: cfg.Options.WrapperRegenerate,
			ToolVersion:       cfg.Options.ToolVersion,
			DotnetVersion:     cfg.Options.DotnetVersion,
			NpgsqlVersion:     cfg.Options.NpgsqlVersion,
			AcceptNoVenv:      cfg.Options.AcceptNoVenv,
			Task:              cfg.Options.Task,
		},
	}
	for _, p := range cfg.Prefer {
		out.Prefer = append(out.Prefer, string(p))
	}
	if cfg.Timeout > 0 {
		out.Timeout = cfg.Timeout.String()
	}
	if cfg.GracePeriod > 0 {
		out.GracePeriod = cfg.GracePeriod.String()
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
