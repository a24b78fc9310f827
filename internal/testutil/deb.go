// Package testutil builds .deb archives and PGP keys for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Member is one named entry of an ar or tar archive
type Member struct {
	Name string
	Data []byte
}

// Tar packs members into an uncompressed tar stream
func Tar(t *testing.T, members ...Member) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{
			Name:    m.Name,
			Mode:    0644,
			Size:    int64(len(m.Data)),
			ModTime: time.Unix(0, 0),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write(m.Data); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	return buf.Bytes()
}

// Gzip compresses data
func Gzip(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write(data)
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// Xz compresses data
func Xz(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	xw.Write(data)
	if err := xw.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}
	return buf.Bytes()
}

// Zstd compresses data
func Zstd(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	zw.Write(data)
	if err := zw.Close(); err != nil {
		t.Fatalf("zstd close: %v", err)
	}
	return buf.Bytes()
}

// Ar packs members into an ar archive with the global header
func Ar(t *testing.T, members ...Member) []byte {
	t.Helper()
	var buf bytes.Buffer
	arW := ar.NewWriter(&buf)
	if err := arW.WriteGlobalHeader(); err != nil {
		t.Fatalf("ar global header: %v", err)
	}
	for _, m := range members {
		hdr := &ar.Header{
			Name:    m.Name,
			Size:    int64(len(m.Data)),
			Mode:    0644,
			ModTime: time.Unix(0, 0),
		}
		if err := arW.WriteHeader(hdr); err != nil {
			t.Fatalf("ar header: %v", err)
		}
		if _, err := arW.Write(m.Data); err != nil {
			t.Fatalf("ar write: %v", err)
		}
	}
	return buf.Bytes()
}

// DebBytes builds a .deb whose control.tar.gz holds ./control with the given text
func DebBytes(t *testing.T, control string) []byte {
	t.Helper()
	controlTar := Gzip(t, Tar(t,
		Member{Name: "./control", Data: []byte(control)},
		Member{Name: "./md5sums", Data: []byte("d41d8cd98f00b204e9800998ecf8427e  usr/share/doc/empty\n")},
	))
	return Ar(t,
		Member{Name: "debian-binary", Data: []byte("2.0\n")},
		Member{Name: "control.tar.gz", Data: controlTar},
		Member{Name: "data.tar.gz", Data: Gzip(t, Tar(t))},
	)
}

// WriteDeb writes DebBytes(control) to dir/name and returns the path
func WriteDeb(t *testing.T, dir, name, control string) string {
	t.Helper()
	return WriteFile(t, dir, name, DebBytes(t, control))
}

// WriteFile writes data to dir/name and returns the path
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Control renders a minimal control block for name and version
func Control(name, version string) string {
	return "Package: " + name + "\n" +
		"Version: " + version + "\n" +
		"Architecture: amd64\n" +
		"Maintainer: a@b\n" +
		"Installed-Size: 10\n" +
		"Section: utils\n" +
		"Priority: optional\n" +
		"Description: demo\n"
}
