package deb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ralt/aptrepo/internal/models"
)

func samplePackage(name string) models.Package {
	return models.Package{
		Name:          name,
		Version:       "1.0",
		Architecture:  "amd64",
		Maintainer:    "a@b",
		InstalledSize: "10",
		Section:       "utils",
		Priority:      "optional",
		Description:   "demo",
		Filename:      name + "_1.0_amd64.deb",
		Size:          1234,
		MD5Sum:        "md5",
		SHA1Sum:       "sha1",
		SHA256Sum:     "sha256",
		SHA512Sum:     "sha512",
	}
}

func TestGeneratePackagesFile(t *testing.T) {
	content := string(GeneratePackagesFile([]models.Package{samplePackage("foo")}))

	want := "Package: foo\n" +
		"Version: 1.0\n" +
		"Architecture: amd64\n" +
		"Maintainer: a@b\n" +
		"Installed-Size: 10\n" +
		"Filename: foo_1.0_amd64.deb\n" +
		"Size: 1234\n" +
		"MD5sum: md5\n" +
		"SHA1: sha1\n" +
		"SHA256: sha256\n" +
		"SHA512: sha512\n" +
		"Section: utils\n" +
		"Priority: optional\n" +
		"Description: demo\n" +
		"\n"

	if content != want {
		t.Errorf("Packages mismatch:\n got:\n%s\nwant:\n%s", content, want)
	}
	if strings.Contains(content, "Depends:") {
		t.Error("empty Depends should be omitted")
	}
}

func TestPackagesFileDepends(t *testing.T) {
	pkg := samplePackage("foo")
	pkg.Depends = "libc6 (>= 2.34)"

	content := string(GeneratePackagesFile([]models.Package{pkg}))
	if !strings.Contains(content, "Installed-Size: 10\nDepends: libc6 (>= 2.34)\nFilename:") {
		t.Errorf("Depends not placed after Installed-Size:\n%s", content)
	}
}

func TestPackagesFileMultilineDescription(t *testing.T) {
	pkg := samplePackage("foo")
	pkg.Description = "summary\n line one\n .\n line two"

	content := string(GeneratePackagesFile([]models.Package{pkg}))
	if !strings.HasSuffix(content, "Description: summary\n line one\n .\n line two\n\n") {
		t.Errorf("multi-line Description not preserved:\n%s", content)
	}
}

func TestPackageIndexOrderAndDuplicates(t *testing.T) {
	idx := NewPackageIndex()
	for _, name := range []string{"zeta", "alpha", "zeta"} {
		idx.Add(samplePackage(name))
	}

	if idx.Len() != 3 {
		t.Fatalf("Len = %d, want 3", idx.Len())
	}

	records := strings.Split(strings.TrimSuffix(string(idx.Render()), "\n"), "\n\n")
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, name := range []string{"zeta", "alpha", "zeta"} {
		if !strings.HasPrefix(records[i], "Package: "+name+"\n") {
			t.Errorf("record %d = %q, want %s", i, records[i], name)
		}
	}
}

func TestPackageIndexRenderIsRepeatable(t *testing.T) {
	idx := NewPackageIndex()
	idx.Add(samplePackage("foo"))
	idx.Add(samplePackage("bar"))

	if !bytes.Equal(idx.Render(), idx.Render()) {
		t.Error("Render is not repeatable")
	}

	// Mutating the returned copy leaves the index untouched
	pkgs := idx.Packages()
	pkgs[0].Name = "changed"
	if idx.Packages()[0].Name != "foo" {
		t.Error("Packages returned shared storage")
	}
}

func TestPackagesRoundTrip(t *testing.T) {
	pkg := samplePackage("foo")
	pkg.Depends = "bar"

	parsed, err := ParseControlText(string(GeneratePackagesFile([]models.Package{pkg})))
	if err != nil {
		t.Fatalf("ParseControlText failed: %v", err)
	}

	if parsed.Name != pkg.Name || parsed.Version != pkg.Version ||
		parsed.Architecture != pkg.Architecture || parsed.Maintainer != pkg.Maintainer ||
		parsed.InstalledSize != pkg.InstalledSize || parsed.Depends != pkg.Depends ||
		parsed.Section != pkg.Section || parsed.Priority != pkg.Priority ||
		parsed.Description != pkg.Description {
		t.Errorf("control fields did not survive a round trip:\n got %+v\nwant %+v", parsed, pkg)
	}
}

func TestGeneratePackagesFileEmpty(t *testing.T) {
	if content := GeneratePackagesFile(nil); len(content) != 0 {
		t.Errorf("expected empty Packages, got %q", content)
	}
}
