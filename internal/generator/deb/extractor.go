package deb

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ralt/aptrepo/internal/models"
	"github.com/ulikunitz/xz"
)

const (
	arGlobalHeader = "!<arch>\n"

	controlMemberPrefix = "control.tar."
	controlFileName     = "./control"
)

// decompressors maps a control member suffix to its stream decoder.
var decompressors = map[string]func(io.Reader) (io.ReadCloser, error){
	"gz": func(r io.Reader) (io.ReadCloser, error) {
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return gr, nil
	},
	"xz": func(r io.Reader) (io.ReadCloser, error) {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	},
	"zst": func(r io.Reader) (io.ReadCloser, error) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	},
}

// Extractor pulls the control file out of .deb archives
type Extractor struct {
	compressions []string
}

// NewExtractor creates an extractor accepting control.tar.<ext> members for
// each of the given compressions. With no arguments only control.tar.gz is
// accepted.
func NewExtractor(compressions ...string) (*Extractor, error) {
	if len(compressions) == 0 {
		compressions = []string{"gz"}
	}
	for _, c := range compressions {
		if _, ok := decompressors[c]; !ok {
			return nil, models.NewError(models.ErrInvalidConfig, "unsupported control compression %q", c)
		}
	}
	return &Extractor{compressions: compressions}, nil
}

// ExtractControl returns the trimmed text of ./control inside the archive at path
func (e *Extractor) ExtractControl(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &models.RepoGenError{Type: models.ErrFileRead, Err: err}
	}
	defer f.Close()

	return e.ExtractControlFrom(f)
}

// ExtractControlFrom reads an archive as a forward-only stream. Scanning stops
// at the first accepted control member; later members are never read.
func (e *Extractor) ExtractControlFrom(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(arGlobalHeader))
	if err != nil || string(magic) != arGlobalHeader {
		return "", models.NewError(models.ErrExtraction, "not an archive")
	}

	arReader := ar.NewReader(br)
	for {
		header, err := arReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", models.NewError(models.ErrExtraction, "malformed archive: %v", err)
		}

		// GNU ar terminates member names with a slash
		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		decompress, ok := e.accepts(name)
		if !ok {
			continue
		}

		return readControlMember(arReader, name, decompress)
	}

	return "", models.NewError(models.ErrExtraction, "no control content found")
}

func (e *Extractor) accepts(name string) (func(io.Reader) (io.ReadCloser, error), bool) {
	if !strings.HasPrefix(name, controlMemberPrefix) {
		return nil, false
	}
	ext := strings.TrimPrefix(name, controlMemberPrefix)
	for _, c := range e.compressions {
		if c == ext {
			return decompressors[c], true
		}
	}
	return nil, false
}

// readControlMember decodes the nested tar stream of a control member
func readControlMember(r io.Reader, member string, decompress func(io.Reader) (io.ReadCloser, error)) (string, error) {
	dr, err := decompress(r)
	if err != nil {
		return "", models.NewError(models.ErrExtraction, "decompressing %s: %v", member, err)
	}
	defer dr.Close()

	tr := tar.NewReader(dr)
	for {
		th, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", models.NewError(models.ErrExtraction, "reading %s: %v", member, err)
		}

		if th.Name != controlFileName {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return "", models.NewError(models.ErrExtraction, "reading %s from %s: %v", controlFileName, member, err)
		}
		return strings.TrimSpace(strings.ToValidUTF8(string(data), "\uFFFD")), nil
	}

	return "", models.NewError(models.ErrExtraction, "no control content found")
}

// ExtractControl is a convenience wrapper using the default extractor
func ExtractControl(path string) (string, error) {
	e, err := NewExtractor()
	if err != nil {
		return "", err
	}
	return e.ExtractControl(path)
}

// String describes the accepted control members, for logging
func (e *Extractor) String() string {
	names := make([]string, len(e.compressions))
	for i, c := range e.compressions {
		names[i] = controlMemberPrefix + c
	}
	return fmt.Sprintf("Extractor(%s)", strings.Join(names, ", "))
}
