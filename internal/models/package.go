package models

import "strings"

// Package is one entry of the Packages index, built from a single archive.
type Package struct {
	// Control metadata
	Name          string
	Version       string
	Architecture  string
	Maintainer    string
	InstalledSize string
	Depends       string
	Section       string
	Priority      string
	Description   string

	// File information
	Filename  string
	Size      int64
	MD5Sum    string
	SHA1Sum   string
	SHA256Sum string
	SHA512Sum string

	// Source is the archive path the record was read from.
	Source string
}

// Validate checks that every field the index requires is present.
func (p *Package) Validate() error {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"Package", p.Name},
		{"Version", p.Version},
		{"Architecture", p.Architecture},
		{"Maintainer", p.Maintainer},
		{"Installed-Size", p.InstalledSize},
		{"Filename", p.Filename},
		{"MD5sum", p.MD5Sum},
		{"SHA1", p.SHA1Sum},
		{"SHA256", p.SHA256Sum},
		{"SHA512", p.SHA512Sum},
	}
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if p.Size < 0 {
		missing = append(missing, "Size")
	}
	if len(missing) > 0 {
		return NewError(ErrPackageParse, "missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
