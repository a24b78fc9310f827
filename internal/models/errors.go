package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrPackageParse ErrorType = iota
	ErrMetadataGen
	ErrSigning
	ErrFileOp
	ErrInvalidConfig
	ErrFileRead
	ErrUnsupportedAlgorithm
	ErrExtraction
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrPackageParse:
		return "ParseError"
	case ErrMetadataGen:
		return "MetadataGen"
	case ErrSigning:
		return "SigningError"
	case ErrFileOp:
		return "FileOp"
	case ErrInvalidConfig:
		return "ConfigurationError"
	case ErrFileRead:
		return "FileReadError"
	case ErrUnsupportedAlgorithm:
		return "UnsupportedAlgorithmError"
	case ErrExtraction:
		return "ExtractionError"
	default:
		return "Unknown"
	}
}

// RepoGenError represents an error during repository generation.
// Package holds the archive path when the failure belongs to one archive.
type RepoGenError struct {
	Type    ErrorType
	Package string
	Err     error
}

// NewError builds a RepoGenError from a formatted message.
func NewError(t ErrorType, format string, args ...interface{}) *RepoGenError {
	return &RepoGenError{Type: t, Err: fmt.Errorf(format, args...)}
}

// Error implements the error interface
func (e *RepoGenError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *RepoGenError) Unwrap() error {
	return e.Err
}

// WithPackage attaches an archive path to err. A RepoGenError keeps its type;
// anything else is reported as fallback.
func WithPackage(err error, pkg string, fallback ErrorType) error {
	if err == nil {
		return nil
	}
	var rge *RepoGenError
	if errors.As(err, &rge) {
		if rge.Package != "" {
			return err
		}
		return &RepoGenError{Type: rge.Type, Package: pkg, Err: rge.Err}
	}
	return &RepoGenError{Type: fallback, Package: pkg, Err: err}
}

// IsErrorType reports whether any RepoGenError in err's chain has type t.
func IsErrorType(err error, t ErrorType) bool {
	for err != nil {
		var rge *RepoGenError
		if !errors.As(err, &rge) {
			return false
		}
		if rge.Type == t {
			return true
		}
		err = rge.Err
	}
	return false
}
