package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/ralt/aptrepo/internal/utils"
	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct {
	// Exclude lists directories that are never descended into, such as an
	// output directory nested inside the input directory.
	Exclude []string
}

var _ Scanner = (*FileSystemScanner)(nil)

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner(exclude ...string) *FileSystemScanner {
	return &FileSystemScanner{Exclude: exclude}
}

// Scan recursively scans a directory for packages. Results are sorted by
// path so the index order does not depend on the filesystem.
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]ScannedPackage, error) {
	var packages []ScannedPackage

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != dir && s.excluded(path) {
				logrus.Debugf("Skipping excluded directory %s", path)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		pkgType, err := s.DetectType(path)
		if err != nil {
			logrus.Warnf("Failed to detect type for %s: %v", path, err)
			return nil
		}
		if pkgType == TypeUnknown {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		logrus.Debugf("Found %s package: %s", pkgType, path)

		packages = append(packages, ScannedPackage{
			Path: path,
			Type: pkgType,
			Size: info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Path < packages[j].Path
	})

	var total int64
	for _, pkg := range packages {
		total += pkg.Size
	}
	logrus.Infof("Found %d packages in %s (%s)", len(packages), dir, humanize.Bytes(uint64(total)))
	return packages, nil
}

// DetectType determines the package type of a file
func (s *FileSystemScanner) DetectType(path string) (PackageType, error) {
	return DetectPackageType(path)
}

func (s *FileSystemScanner) excluded(path string) bool {
	for _, ex := range s.Exclude {
		if utils.SamePath(path, ex) {
			return true
		}
	}
	return false
}

// MergePaths combines scanned packages with explicit paths, dropping exact
// duplicate paths and sorting the result lexicographically.
func MergePaths(scanned []ScannedPackage, explicit []string) []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		key := filepath.Clean(p)
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		paths = append(paths, p)
	}
	for _, sp := range scanned {
		add(sp.Path)
	}
	for _, p := range explicit {
		add(p)
	}
	sort.Strings(paths)
	return paths
}
