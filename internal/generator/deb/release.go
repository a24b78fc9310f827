package deb

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ralt/aptrepo/internal/models"
	"github.com/ralt/aptrepo/internal/utils"
)

// ReleaseDateFormat renders e.g. "Wed, 02 Oct 2024 10:00:00 UTC"
const ReleaseDateFormat = time.RFC1123

// ReleaseFileInfo contains information about a file in the release
type ReleaseFileInfo struct {
	Path     string
	Checksum *utils.Checksum
}

// ReleaseHeader holds the optional fields written above Date
type ReleaseHeader struct {
	Origin        string
	Label         string
	Suite         string
	Codename      string
	Architectures string
	Components    string
	Description   string
}

// HeaderFromConfig copies the Release header fields out of config
func HeaderFromConfig(config *models.RepositoryConfig) ReleaseHeader {
	return ReleaseHeader{
		Origin:        config.Origin,
		Label:         config.Label,
		Suite:         config.Suite,
		Codename:      config.Codename,
		Architectures: config.Architectures,
		Components:    config.Components,
		Description:   config.Description,
	}
}

// Release is the top-level manifest. The date is fixed when the manifest is
// created, so rendering is repeatable.
type Release struct {
	header ReleaseHeader
	date   string
	files  []ReleaseFileInfo
}

// NewRelease creates a manifest dated now (converted to UTC)
func NewRelease(header ReleaseHeader, now time.Time) *Release {
	return &Release{
		header: header,
		date:   now.UTC().Format(ReleaseDateFormat),
	}
}

// Date returns the rendered Date field
func (r *Release) Date() string {
	return r.date
}

// Add appends an entry. Every entry needs all four digests.
func (r *Release) Add(info ReleaseFileInfo) error {
	if info.Checksum == nil {
		return models.NewError(models.ErrMetadataGen, "release entry %s has no checksums", info.Path)
	}
	if err := info.Checksum.Complete(); err != nil {
		return fmt.Errorf("release entry %s: %w", info.Path, err)
	}
	r.files = append(r.files, info)
	return nil
}

// Render creates the Release file text
func (r *Release) Render() []byte {
	var buf bytes.Buffer

	writeField := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&buf, "%s: %s\n", key, value)
		}
	}
	writeField("Origin", r.header.Origin)
	writeField("Label", r.header.Label)
	writeField("Suite", r.header.Suite)
	writeField("Codename", r.header.Codename)
	writeField("Architectures", r.header.Architectures)
	writeField("Components", r.header.Components)
	writeField("Description", r.header.Description)
	fmt.Fprintf(&buf, "Date: %s\n", r.date)

	sections := []struct {
		title string
		alg   utils.Algorithm
	}{
		{"MD5Sum", utils.MD5},
		{"SHA1", utils.SHA1},
		{"SHA256", utils.SHA256},
		{"SHA512", utils.SHA512},
	}
	for _, section := range sections {
		fmt.Fprintf(&buf, "%s:\n", section.title)
		for _, file := range r.files {
			sum, _ := file.Checksum.Get(section.alg)
			fmt.Fprintf(&buf, " %s  %d %s\n", sum, file.Checksum.Size, file.Path)
		}
	}

	return buf.Bytes()
}

// CalculateReleaseFileInfos calculates checksums for all metadata files
func CalculateReleaseFileInfos(basePath string, files []string) ([]ReleaseFileInfo, error) {
	var infos []ReleaseFileInfo

	for _, file := range files {
		fullPath := filepath.Join(basePath, file)
		checksum, err := utils.CalculateChecksums(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate checksum for %s: %w", file, err)
		}

		infos = append(infos, ReleaseFileInfo{
			Path:     filepath.ToSlash(file),
			Checksum: checksum,
		})
	}

	return infos, nil
}
