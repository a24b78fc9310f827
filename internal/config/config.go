// Package config assembles a RepositoryConfig from defaults, a YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ralt/aptrepo/internal/models"
	"github.com/ralt/aptrepo/internal/signer"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "APTREPO_"

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty), then with APTREPO_* variables. A .env file in the working
// directory is loaded first when present; it never overrides variables that
// are already set.
func Load(path string) (*models.RepositoryConfig, error) {
	cfg := models.DefaultConfig()

	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the YAML file at path into cfg. Keys absent from the file
// keep their current values; unknown keys are rejected.
func LoadFile(path string, cfg *models.RepositoryConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return &models.RepoGenError{Type: models.ErrFileRead, Err: fmt.Errorf("failed to open config: %w", err)}
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return &models.RepoGenError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("failed to parse %s: %w", path, err)}
	}

	logrus.Debugf("Loaded configuration from %s", path)
	return nil
}

// ApplyEnv overlays the APTREPO_* variables returned by lookup onto cfg
func ApplyEnv(cfg *models.RepositoryConfig, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"INPUT_DIR":           &cfg.InputDir,
		"OUTPUT_DIR":          &cfg.OutputDir,
		"ORIGIN":              &cfg.Origin,
		"LABEL":               &cfg.Label,
		"SUITE":               &cfg.Suite,
		"CODENAME":            &cfg.Codename,
		"ARCHITECTURES":       &cfg.Architectures,
		"COMPONENTS":          &cfg.Components,
		"DESCRIPTION":         &cfg.Description,
		"GPG_KEY":             &cfg.Signing.KeyRing,
		"KEY_ID":              &cfg.Signing.KeyID,
		"GPG_PASSPHRASE":      &cfg.Signing.Passphrase,
		"GPG_PASSPHRASE_FILE": &cfg.Signing.PassphraseFile,
		"DIGEST":              &cfg.Signing.Digest,
		"PUBLIC_KEY_NAME":     &cfg.Signing.PublicKeyName,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"COPY_PACKAGES": &cfg.CopyPackages,
		"SIGN":          &cfg.Signing.Enabled,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return models.NewError(models.ErrInvalidConfig, "invalid %s%s %q: %v", EnvPrefix, name, v, err)
		}
		*dst = b
	}

	if v, ok := lookup(EnvPrefix + "WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return models.NewError(models.ErrInvalidConfig, "invalid %sWORKERS %q: %v", EnvPrefix, v, err)
		}
		cfg.Workers = n
	}

	if v, ok := lookup(EnvPrefix + "CONTROL_COMPRESSIONS"); ok {
		cfg.ControlCompressions = splitList(v)
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks cfg before any file is read or written
func Validate(cfg *models.RepositoryConfig) error {
	if cfg.OutputDir == "" {
		return models.NewError(models.ErrInvalidConfig, "output-dir is required")
	}

	if cfg.Workers < 1 {
		return models.NewError(models.ErrInvalidConfig, "workers must be at least 1, got %d", cfg.Workers)
	}

	for _, c := range cfg.ControlCompressions {
		switch c {
		case "gz", "xz", "zst":
		default:
			return models.NewError(models.ErrInvalidConfig, "unsupported control compression %q", c)
		}
	}

	if name := cfg.Signing.PublicKeyName; name != "" && strings.ContainsAny(name, `/\`) {
		return models.NewError(models.ErrInvalidConfig, "public key name %q must be a plain file name", name)
	}

	return signer.ValidateConfig(cfg.Signing)
}
