package models

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestRepoGenErrorMessage(t *testing.T) {
	err := &RepoGenError{Type: ErrExtraction, Package: "pool/foo.deb", Err: errors.New("no control content found")}
	if got := err.Error(); got != "[ExtractionError] pool/foo.deb: no control content found" {
		t.Errorf("Error() = %q", got)
	}

	err = NewError(ErrInvalidConfig, "bad digest %q", "CRC32")
	if got := err.Error(); got != `[ConfigurationError] bad digest "CRC32"` {
		t.Errorf("Error() = %q", got)
	}
}

func TestWithPackage(t *testing.T) {
	if WithPackage(nil, "foo.deb", ErrFileRead) != nil {
		t.Error("nil error should stay nil")
	}

	// Plain errors take the fallback type and stay unwrappable
	err := WithPackage(fs.ErrNotExist, "foo.deb", ErrFileRead)
	if !IsErrorType(err, ErrFileRead) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("unexpected wrapping: %v", err)
	}

	// Typed errors keep their type
	err = WithPackage(NewError(ErrPackageParse, "no control content"), "foo.deb", ErrExtraction)
	var rge *RepoGenError
	if !errors.As(err, &rge) || rge.Type != ErrPackageParse || rge.Package != "foo.deb" {
		t.Errorf("unexpected wrapping: %#v", err)
	}

	// An archive path already attached is not replaced
	err = WithPackage(err, "other.deb", ErrExtraction)
	if !errors.As(err, &rge) || rge.Package != "foo.deb" {
		t.Errorf("package overwritten: %v", err)
	}
}

func TestIsErrorType(t *testing.T) {
	inner := NewError(ErrSigning, "wrong passphrase")
	outer := fmt.Errorf("failed to generate repository: %w", &RepoGenError{Type: ErrMetadataGen, Err: inner})

	if !IsErrorType(outer, ErrMetadataGen) || !IsErrorType(outer, ErrSigning) {
		t.Error("IsErrorType should find every type in the chain")
	}
	if IsErrorType(outer, ErrFileRead) {
		t.Error("IsErrorType matched a type not in the chain")
	}
	if IsErrorType(errors.New("plain"), ErrFileRead) || IsErrorType(nil, ErrFileRead) {
		t.Error("untyped errors have no type")
	}
}
