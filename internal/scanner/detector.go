package scanner

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Debian packages start with "!<arch>\ndebian"
var debMagic = []byte("!<arch>\ndebian")

// DetectPackageType determines the package type based on magic bytes and file extension.
// A file named *.deb is always reported as a Debian package so that a broken
// archive fails the build instead of being silently skipped.
func DetectPackageType(path string) (PackageType, error) {
	if filepath.Ext(path) == ".deb" {
		return TypeDeb, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer f.Close()

	header := make([]byte, len(debMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return TypeUnknown, err
	}

	if bytes.Equal(header[:n], debMagic) {
		return TypeDeb, nil
	}

	return TypeUnknown, nil
}
