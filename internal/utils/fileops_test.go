package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGzipRoundTrip(t *testing.T) {
	data := []byte("Package: foo\nVersion: 1.0\n\n")

	compressed, err := GzipCompress(data)
	if err != nil {
		t.Fatalf("GzipCompress failed: %v", err)
	}

	again, err := GzipCompress(data)
	if err != nil {
		t.Fatalf("GzipCompress failed: %v", err)
	}
	if !bytes.Equal(compressed, again) {
		t.Errorf("GzipCompress output is not reproducible")
	}

	plain, err := GzipDecompress(compressed)
	if err != nil {
		t.Fatalf("GzipDecompress failed: %v", err)
	}
	if !bytes.Equal(plain, data) {
		t.Errorf("round trip mismatch: got %q", plain)
	}
}

func TestShouldCopyPackage(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src", "foo_1.0_amd64.deb")
	dst := filepath.Join(tmpDir, "dst", "foo_1.0_amd64.deb")

	if err := WriteFile(src, []byte("deb bytes"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	sum, err := Digest(src, SHA256)
	if err != nil {
		t.Fatalf("Digest failed: %v", err)
	}

	copyNeeded, err := ShouldCopyPackage(src, dst, sum.SHA256)
	if err != nil {
		t.Fatalf("ShouldCopyPackage failed: %v", err)
	}
	if !copyNeeded {
		t.Errorf("expected copy when destination is missing")
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	copyNeeded, err = ShouldCopyPackage(src, dst, sum.SHA256)
	if err != nil {
		t.Fatalf("ShouldCopyPackage failed: %v", err)
	}
	if copyNeeded {
		t.Errorf("expected no copy when destination matches")
	}

	copyNeeded, _ = ShouldCopyPackage(src, src, sum.SHA256)
	if copyNeeded {
		t.Errorf("expected no copy onto itself")
	}

	if err := os.WriteFile(dst, []byte("deb byteZ"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	copyNeeded, _ = ShouldCopyPackage(src, dst, sum.SHA256)
	if !copyNeeded {
		t.Errorf("expected copy when destination content differs")
	}
}
