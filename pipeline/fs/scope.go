package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrNoArtifact = errors.New("no artifact found in scope")

// Scope is a temporary directory exclusively owned by a single acquisition
// job. It is never shared between jobs, and its backing storage is removed
// exactly once regardless of how many times Release is called.
type Scope struct {
	dir     string
	release sync.Once
}

func NewScope(baseDir string) (*Scope, error) {
	if err := os.MkdirAll(baseDir, 0o700); nil != err {
		return nil, fmt.Errorf("failed to create downloads base directory: %v", err)
	}

	dir := filepath.Join(baseDir, "job-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); nil != err {
		return nil, fmt.Errorf("failed to create job scope directory: %v", err)
	}

	return &Scope{dir: dir}, nil //nolint:exhaustruct
}

func (s *Scope) Dir() string {
	return s.dir
}

// Find locates the file the download backend actually produced. The backend
// may substitute the container format, so the lookup is by expected base name
// first in preference order of extensions, then any remaining "base.*" entry.
func (s *Scope) Find(baseName string, preferredExts []string) (string, error) {
	for _, ext := range preferredExts {
		path := filepath.Join(s.dir, baseName+"."+ext)
		if _, err := os.Stat(path); nil == err {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat scope file: %v", err)
		}
	}

	entries, err := os.ReadDir(s.dir)
	if nil != err {
		return "", fmt.Errorf("failed to list scope directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if name := entry.Name(); strings.HasPrefix(name, baseName+".") && !strings.HasSuffix(name, ".part") {
			return filepath.Join(s.dir, name), nil
		}
	}

	return "", ErrNoArtifact
}

// Release removes the scope directory and everything under it. Safe to call
// more than once and from the owning job and the delivery path concurrently.
func (s *Scope) Release() error {
	var err error
	s.release.Do(func() {
		if removeErr := os.RemoveAll(s.dir); nil != removeErr {
			err = fmt.Errorf("failed to remove job scope directory: %v", removeErr)
		}
	})

	return err
}
