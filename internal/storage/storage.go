// Package storage keeps uploaded documents on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a stored file no longer exists.
var ErrNotFound = errors.New("file not found")

const stampLayout = "20060102_150405"

// Local stores files under a single directory.
type Local struct {
	dir   string
	clock func() time.Time
}

// NewLocal returns a Local rooted at dir. The directory is created lazily.
func NewLocal(dir string) *Local {
	return &Local{dir: dir, clock: time.Now}
}

// WithClock overrides the clock used in generated file names.
func (l *Local) WithClock(clock func() time.Time) *Local {
	l.clock = clock
	return l
}

// Dir returns the storage root.
func (l *Local) Dir() string {
	return l.dir
}

// PathFor builds <dir>/<name>_<YYYYmmdd_HHMMSS>_<filename>.
func (l *Local) PathFor(name, filename string) string {
	base := fmt.Sprintf("%s_%s_%s", sanitize(name), l.clock().Format(stampLayout), sanitize(filepath.Base(filename)))
	return filepath.Join(l.dir, base)
}

// Save writes r to a new file and returns its path. When the generated
// name is taken, a short random suffix is added before the extension.
func (l *Local) Save(name, filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create documents directory: %w", err)
	}

	path := l.PathFor(name, filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		ext := filepath.Ext(path)
		path = strings.TrimSuffix(path, ext) + "_" + uuid.NewString()[:8] + ext
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// Read returns the file contents, or ErrNotFound.
func (l *Local) Read(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Remove deletes the file. A file that is already gone is not an error.
func (l *Local) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, s)
}
