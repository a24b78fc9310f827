package deb

import (
	"testing"

	"github.com/ralt/aptrepo/internal/models"
	"github.com/ralt/aptrepo/internal/testutil"
)

func TestParseControlScenario(t *testing.T) {
	pkg, err := ParseControlText(testutil.Control("foo", "1.0"))
	if err != nil {
		t.Fatalf("ParseControlText failed: %v", err)
	}

	want := models.Package{
		Name:          "foo",
		Version:       "1.0",
		Architecture:  "amd64",
		Maintainer:    "a@b",
		InstalledSize: "10",
		Section:       "utils",
		Priority:      "optional",
		Description:   "demo",
	}
	if *pkg != want {
		t.Errorf("parsed package mismatch:\n got %+v\nwant %+v", *pkg, want)
	}
}

func TestParseControlContinuation(t *testing.T) {
	text := "Package: foo\n" +
		"Description: short summary\n" +
		" long line one\n" +
		" .\n" +
		"\tlong line two   \n" +
		"Depends: libc6 (>= 2.34),\n" +
		" libssl3\n"

	pkg, err := ParseControlText(text)
	if err != nil {
		t.Fatalf("ParseControlText failed: %v", err)
	}

	wantDesc := "short summary\n long line one\n .\n\tlong line two"
	if pkg.Description != wantDesc {
		t.Errorf("Description = %q, want %q", pkg.Description, wantDesc)
	}
	if pkg.Depends != "libc6 (>= 2.34),\n libssl3" {
		t.Errorf("Depends = %q", pkg.Depends)
	}
}

func TestParseControlIgnoresUnknownKeys(t *testing.T) {
	text := "Package: foo\n" +
		"Homepage: https://example.com\n" +
		" continued homepage\n" +
		"package: lowercase\n" +
		"no colon here\n" +
		"Version: 2.0\r\n"

	pkg, err := ParseControlText(text)
	if err != nil {
		t.Fatalf("ParseControlText failed: %v", err)
	}
	if pkg.Name != "foo" {
		t.Errorf("Name = %q, want foo", pkg.Name)
	}
	if pkg.Version != "2.0" {
		t.Errorf("Version = %q, want 2.0", pkg.Version)
	}
	if pkg.Description != "" || pkg.Depends != "" {
		t.Errorf("unexpected fields set: %+v", pkg)
	}
}

func TestParseControlValueWithColon(t *testing.T) {
	pkg, err := ParseControlText("Maintainer: Jane <jane@example.com>: team\nDepends: a:any\n")
	if err != nil {
		t.Fatalf("ParseControlText failed: %v", err)
	}
	if pkg.Maintainer != "Jane <jane@example.com>: team" {
		t.Errorf("Maintainer = %q", pkg.Maintainer)
	}
	if pkg.Depends != "a:any" {
		t.Errorf("Depends = %q", pkg.Depends)
	}
}

func TestParseControlLastValueWins(t *testing.T) {
	pkg, err := ParseControlText("Version: 1.0\nVersion: 1.1\n")
	if err != nil {
		t.Fatalf("ParseControlText failed: %v", err)
	}
	if pkg.Version != "1.1" {
		t.Errorf("Version = %q, want 1.1", pkg.Version)
	}
}

func TestParseControlEmpty(t *testing.T) {
	for _, text := range []string{"", "   \n\n"} {
		_, err := ParseControlText(text)
		if !models.IsErrorType(err, models.ErrPackageParse) {
			t.Errorf("ParseControlText(%q): expected ParseError, got %v", text, err)
		}
	}
}

func TestParseControlKeepsFileFields(t *testing.T) {
	pkg := &models.Package{Size: 42, SHA256Sum: "abc", Source: "/tmp/foo.deb"}
	if err := ParseControl("Package: foo\n", pkg); err != nil {
		t.Fatalf("ParseControl failed: %v", err)
	}
	if pkg.Size != 42 || pkg.SHA256Sum != "abc" || pkg.Source != "/tmp/foo.deb" {
		t.Errorf("file fields were modified: %+v", pkg)
	}
}
