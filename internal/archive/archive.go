package archive

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ClassSuffix marks entries holding a class file.
const ClassSuffix = ".class"

// ErrUnsupported is returned by Open and Create for paths that are neither a
// directory nor a jar/zip file.
var ErrUnsupported = errors.New("archive: unsupported path")

// Unit is one entry of an archive. Path is slash-separated and relative to
// the archive root.
type Unit struct {
	Path string
	Data []byte
}

// IsClass reports whether the unit holds a class file.
func (u Unit) IsClass() bool {
	return strings.HasSuffix(u.Path, ClassSuffix)
}

// ClassName returns the internal class name implied by the unit's path,
// e.g. "com/app/PluginA" for "com/app/PluginA.class".
func (u Unit) ClassName() string {
	return strings.TrimSuffix(path.Clean(u.Path), ClassSuffix)
}

// Source yields the units of an archive.
type Source interface {
	// Walk calls fn for every unit in a deterministic order and stops at
	// the first error fn returns.
	Walk(ctx context.Context, fn func(Unit) error) error
	Close() error
}

// Sink collects units. Put is safe for concurrent use. Close finalizes the
// output; units put after Close are lost.
type Sink interface {
	Put(u Unit) error
	Close() error
}

// IsJar reports whether p names a jar or zip file.
func IsJar(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".jar" || ext == ".zip"
}

// Open returns a Source for a directory or a jar, chosen by the path suffix.
func Open(p string) (Source, error) {
	if IsJar(p) {
		return OpenJar(p)
	}
	return OpenDir(p)
}

// Create returns a Sink for a directory or a jar, chosen by the path suffix.
func Create(p string) (Sink, error) {
	if IsJar(p) {
		return CreateJar(p)
	}
	return CreateDir(p)
}
