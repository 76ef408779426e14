package mediaimport

import (
	"os"
)

// tempFile is a scoped temp-file holder: Close always removes the
// underlying path, on every exit path, the way a deferred cleanup should.
type tempFile struct {
	path string
}

func newTempFile(pattern string) (*tempFile, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, err
	}
	path := f.Name()
	f.Close()
	return &tempFile{path: path}, nil
}

func (t *tempFile) Path() string {
	return t.path
}

func (t *tempFile) Close() error {
	return os.Remove(t.path)
}
