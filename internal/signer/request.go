package signer

import (
	"bufio"
	"crypto"
	"fmt"
	"os"
	"strings"

	"github.com/ralt/aptrepo/internal/models"
)

// DigestAlgorithm is a hash usable for signatures, with its OpenPGP tag
type DigestAlgorithm struct {
	Name string
	Tag  uint8
	Hash crypto.Hash
}

// digestAlgorithms follows the OpenPGP hash algorithm registry (RFC 4880 9.4).
var digestAlgorithms = []DigestAlgorithm{
	{"MD5", 1, crypto.MD5},
	{"SHA1", 2, crypto.SHA1},
	{"RIPEMD160", 3, crypto.RIPEMD160},
	{"SHA256", 8, crypto.SHA256},
	{"SHA384", 9, crypto.SHA384},
	{"SHA512", 10, crypto.SHA512},
	{"SHA224", 11, crypto.SHA224},
}

// LookupDigest maps a configured digest name to its algorithm
func LookupDigest(name string) (DigestAlgorithm, error) {
	for _, d := range digestAlgorithms {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return DigestAlgorithm{}, models.NewError(models.ErrInvalidConfig, "unknown signing digest algorithm %q", name)
}

// Request carries everything needed to sign a Release file
type Request struct {
	KeyRing    []byte
	KeyID      string
	Passphrase string
	Digest     DigestAlgorithm
}

// ValidateConfig checks a signing configuration without touching any file
func ValidateConfig(cfg models.SigningConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.KeyRing == "" {
		return models.NewError(models.ErrInvalidConfig, "signing enabled but no key ring given")
	}
	hasDirect := cfg.Passphrase != ""
	hasFile := cfg.PassphraseFile != ""
	if hasDirect == hasFile {
		return models.NewError(models.ErrInvalidConfig, "exactly one of passphrase or passphrase file must be set")
	}
	if _, err := LookupDigest(cfg.Digest); err != nil {
		return err
	}
	return nil
}

// ReadPassphraseFile returns the first line of path without its line terminator
func ReadPassphraseFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &models.RepoGenError{Type: models.ErrFileRead, Err: fmt.Errorf("passphrase file: %w", err)}
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return "", &models.RepoGenError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("passphrase file %s is empty", path)}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// LoadRequest validates cfg and reads the key ring and passphrase it points to
func LoadRequest(cfg models.SigningConfig) (*Request, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, models.NewError(models.ErrInvalidConfig, "signing is not enabled")
	}

	digest, _ := LookupDigest(cfg.Digest)

	passphrase := cfg.Passphrase
	if cfg.PassphraseFile != "" {
		var err error
		passphrase, err = ReadPassphraseFile(cfg.PassphraseFile)
		if err != nil {
			return nil, err
		}
	}

	keyRing, err := os.ReadFile(cfg.KeyRing)
	if err != nil {
		return nil, &models.RepoGenError{Type: models.ErrFileRead, Err: fmt.Errorf("key ring: %w", err)}
	}

	return &Request{
		KeyRing:    keyRing,
		KeyID:      cfg.KeyID,
		Passphrase: passphrase,
		Digest:     digest,
	}, nil
}
