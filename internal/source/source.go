// Package source classifies an input path into the kind of dataset it holds.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Kind is the closed set of input classifications.
type Kind int

const (
	Invalid Kind = iota
	Directory
	DelimitedText
	StructuredArchive
)

func (k Kind) String() string {
	switch k {
	case Directory:
		return "directory"
	case DelimitedText:
		return "delimited-text"
	case StructuredArchive:
		return "structured-archive"
	default:
		return "invalid"
	}
}

// ErrUnrecognizedFormat is returned for paths that match no known Kind.
var ErrUnrecognizedFormat = errors.New("unrecognized input format")

// extensions maps a case-sensitive file extension (without the dot) to its Kind.
var extensions = map[string]Kind{
	"txt":  DelimitedText,
	"csv":  DelimitedText,
	"h5ad": StructuredArchive,
}

// Resolve classifies path. Any result other than Invalid comes with a nil error.
func Resolve(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Invalid, fmt.Errorf("%w: %s: %v", ErrUnrecognizedFormat, path, err)
	}
	if info.IsDir() {
		return Directory, nil
	}
	ext := Extension(path)
	if k, ok := extensions[ext]; ok {
		return k, nil
	}
	if ext == "" {
		return Invalid, fmt.Errorf("%w: %s has no extension", ErrUnrecognizedFormat, path)
	}
	return Invalid, fmt.Errorf("%w: %s (extension %q)", ErrUnrecognizedFormat, path, ext)
}

// Extension returns the text after the final dot of the base name, or "".
func Extension(path string) string {
	ext := filepath.Ext(path)
	if len(ext) <= 1 {
		return ""
	}
	return ext[1:]
}

// IsDelimitedName reports whether a directory entry name is picked up in
// directory mode.
func IsDelimitedName(name string) bool {
	return Extension(name) == "txt" || Extension(name) == "csv"
}
