package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zip"
)

// ManifestPath is the jar manifest. Jar readers that stream the archive
// only find it when it is the first entry after its directory.
const ManifestPath = "META-INF/MANIFEST.MF"

const manifestDir = "META-INF/"

// entryTime is stamped on every written entry so identical input yields
// identical jars.
var entryTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// JarSource reads units from a jar file.
type JarSource struct {
	r *zip.ReadCloser
}

// OpenJar opens the jar at p.
func OpenJar(p string) (*JarSource, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open jar %s: %w", p, err)
	}
	return &JarSource{r: r}, nil
}

// Walk implements Source. Entries are visited in name order; directory
// entries are skipped.
func (s *JarSource) Walk(ctx context.Context, fn func(Unit) error) error {
	files := make([]*zip.File, 0, len(s.r.File))
	for _, f := range s.r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("failed to read jar entry %s: %w", f.Name, err)
		}
		if err := fn(Unit{Path: f.Name, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Close implements Source.
func (s *JarSource) Close() error {
	return s.r.Close()
}

// JarSink buffers units and writes them on Close: the manifest, when
// present, leads behind a META-INF/ directory entry, then every other unit
// sorted by path.
type JarSink struct {
	path string

	mu    sync.Mutex
	units map[string][]byte
}

// CreateJar prepares a jar to be written at p.
func CreateJar(p string) (*JarSink, error) {
	return &JarSink{path: p, units: make(map[string][]byte)}, nil
}

// Put implements Sink. A later unit with the same path replaces the earlier.
func (s *JarSink) Put(u Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[strings.TrimPrefix(u.Path, "/")] = u.Data
	return nil
}

// Close implements Sink.
func (s *JarSink) Close() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.units))
	for name := range s.units {
		if name != ManifestPath {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	_, hasManifest := s.units[ManifestPath]

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := zip.NewWriter(f)
	if hasManifest {
		if _, err := w.CreateHeader(&zip.FileHeader{Name: manifestDir, Method: zip.Store, Modified: entryTime}); err != nil {
			return fmt.Errorf("failed to add jar entry %s: %w", manifestDir, err)
		}
		names = append([]string{ManifestPath}, names...)
	}
	for _, name := range names {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: entryTime}
		ew, err := w.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("failed to add jar entry %s: %w", name, err)
		}
		if _, err := ew.Write(s.units[name]); err != nil {
			return fmt.Errorf("failed to write jar entry %s: %w", name, err)
		}
	}
	return w.Close()
}
