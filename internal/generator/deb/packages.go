package deb

import (
	"bytes"
	"fmt"

	"github.com/ralt/aptrepo/internal/models"
)

// PackageIndex accumulates package records in discovery order and renders
// the Packages file. Records are never deduplicated or reordered.
type PackageIndex struct {
	packages []models.Package
}

// NewPackageIndex creates an empty index
func NewPackageIndex() *PackageIndex {
	return &PackageIndex{}
}

// Add appends a copy of pkg to the index
func (idx *PackageIndex) Add(pkg models.Package) {
	idx.packages = append(idx.packages, pkg)
}

// Len returns the number of records
func (idx *PackageIndex) Len() int {
	return len(idx.packages)
}

// Packages returns a copy of the records in insertion order
func (idx *PackageIndex) Packages() []models.Package {
	out := make([]models.Package, len(idx.packages))
	copy(out, idx.packages)
	return out
}

// Render serializes the index. Each record is followed by a blank line.
func (idx *PackageIndex) Render() []byte {
	var buf bytes.Buffer
	for i := range idx.packages {
		writePackage(&buf, &idx.packages[i])
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// GeneratePackagesFile creates a Debian Packages file from package metadata
func GeneratePackagesFile(packages []models.Package) []byte {
	idx := NewPackageIndex()
	for _, pkg := range packages {
		idx.Add(pkg)
	}
	return idx.Render()
}

func writePackage(buf *bytes.Buffer, pkg *models.Package) {
	field := func(key, value string) {
		fmt.Fprintf(buf, "%s: %s\n", key, value)
	}
	optional := func(key, value string) {
		if value != "" {
			field(key, value)
		}
	}

	field(FieldPackage, pkg.Name)
	field(FieldVersion, pkg.Version)
	field(FieldArchitecture, pkg.Architecture)
	field(FieldMaintainer, pkg.Maintainer)
	field(FieldInstalledSize, pkg.InstalledSize)
	optional(FieldDepends, pkg.Depends)

	// File information
	field("Filename", pkg.Filename)
	fmt.Fprintf(buf, "Size: %d\n", pkg.Size)
	field("MD5sum", pkg.MD5Sum)
	field("SHA1", pkg.SHA1Sum)
	field("SHA256", pkg.SHA256Sum)
	field("SHA512", pkg.SHA512Sum)

	optional(FieldSection, pkg.Section)
	optional(FieldPriority, pkg.Priority)
	optional(FieldDescription, pkg.Description)
}
