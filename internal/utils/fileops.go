package utils

import (
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies a file from src to dst
func CopyFile(src, dst string) error {
	// Create destination directory if it doesn't exist
	dstDir := filepath.Dir(dst)
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	// Sync to disk
	return dstFile.Sync()
}

// WriteFile writes data to a file, creating directories as needed
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, perm)
}

// EnsureDir ensures a directory exists, creating it if necessary
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// SamePath reports whether a and b resolve to the same absolute path
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// ShouldCopyPackage reports whether src must be copied to dst. Copies are
// skipped when both paths are the same file or dst already has src's size
// and SHA-256 digest.
func ShouldCopyPackage(src, dst, sha256sum string) (bool, error) {
	if SamePath(src, dst) {
		return false, nil
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}

	dstInfo, err := os.Stat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	if os.SameFile(srcInfo, dstInfo) {
		return false, nil
	}
	if srcInfo.Size() != dstInfo.Size() || sha256sum == "" {
		return true, nil
	}

	dstSum, err := Digest(dst, SHA256)
	if err != nil {
		// Can't calculate checksums, copy to be safe
		return true, nil
	}
	return dstSum.SHA256 != sha256sum, nil
}
