package utils

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/minio/sha256-simd"
	"github.com/ralt/aptrepo/internal/models"
)

// Algorithm identifies a digest algorithm supported by the Digest Engine
type Algorithm string

const (
	MD5    Algorithm = "MD5"
	SHA1   Algorithm = "SHA1"
	SHA256 Algorithm = "SHA256"
	SHA512 Algorithm = "SHA512"
)

// algorithms is iterated in declaration order so output is deterministic.
var algorithms = []struct {
	alg Algorithm
	new func() hash.Hash
}{
	{MD5, md5.New},
	{SHA1, sha1.New},
	{SHA256, sha256.New},
	{SHA512, sha512.New},
}

// AllAlgorithms returns every supported algorithm in fixed order
func AllAlgorithms() []Algorithm {
	out := make([]Algorithm, 0, len(algorithms))
	for _, a := range algorithms {
		out = append(out, a.alg)
	}
	return out
}

// Checksum contains various checksums for a file
type Checksum struct {
	MD5    string
	SHA1   string
	SHA256 string
	SHA512 string
	Size   int64
}

// Get returns the hex digest for alg
func (c *Checksum) Get(alg Algorithm) (string, error) {
	switch alg {
	case MD5:
		return c.MD5, nil
	case SHA1:
		return c.SHA1, nil
	case SHA256:
		return c.SHA256, nil
	case SHA512:
		return c.SHA512, nil
	}
	return "", models.NewError(models.ErrUnsupportedAlgorithm, "unsupported digest algorithm %q", alg)
}

func (c *Checksum) set(alg Algorithm, value string) {
	switch alg {
	case MD5:
		c.MD5 = value
	case SHA1:
		c.SHA1 = value
	case SHA256:
		c.SHA256 = value
	case SHA512:
		c.SHA512 = value
	}
}

// Complete returns an error naming the first algorithm without a digest
func (c *Checksum) Complete() error {
	for _, a := range algorithms {
		if v, _ := c.Get(a.alg); v == "" {
			return models.NewError(models.ErrMetadataGen, "checksum set has no %s digest", a.alg)
		}
	}
	return nil
}

// Digest computes the requested digests of the file at path in a single pass
func Digest(path string, algs ...Algorithm) (*Checksum, error) {
	hashes := make(map[Algorithm]hash.Hash, len(algs))
	for _, alg := range algs {
		found := false
		for _, a := range algorithms {
			if a.alg == alg {
				hashes[alg] = a.new()
				found = true
				break
			}
		}
		if !found {
			return nil, models.NewError(models.ErrUnsupportedAlgorithm, "unsupported digest algorithm %q", alg)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &models.RepoGenError{Type: models.ErrFileRead, Err: err}
	}
	defer f.Close()

	// Keep writer order stable
	writers := make([]io.Writer, 0, len(hashes))
	for _, a := range algorithms {
		if h, ok := hashes[a.alg]; ok {
			writers = append(writers, h)
		}
	}

	size, err := io.Copy(io.MultiWriter(writers...), f)
	if err != nil {
		return nil, &models.RepoGenError{Type: models.ErrFileRead, Err: fmt.Errorf("reading %s: %w", path, err)}
	}

	sum := &Checksum{Size: size}
	for alg, h := range hashes {
		sum.set(alg, hex.EncodeToString(h.Sum(nil)))
	}
	return sum, nil
}

// CalculateChecksums calculates all checksums for a file in a single pass
func CalculateChecksums(path string) (*Checksum, error) {
	return Digest(path, AllAlgorithms()...)
}
