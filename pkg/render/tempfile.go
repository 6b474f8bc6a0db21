package render

import (
	"errors"
	"fmt"
	"os"
)

// WithTempFile creates a temporary file in dir (os.TempDir if empty) and passes it to fn.
// The file is closed and removed when fn returns, whatever the outcome, including when
// fn bails out because its context was canceled.
//
// The pattern follows os.CreateTemp: a "*" is replaced by a random string.
func WithTempFile(dir, pattern string, fn func(f *os.File) error) (err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		// fn may have closed the file already.
		if closeErr := f.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			err = errors.Join(err, fmt.Errorf("failed to close temporary file: %w", closeErr))
		}
		if removeErr := os.Remove(f.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("failed to remove temporary file: %w", removeErr))
		}
	}()

	return fn(f)
}

// writeTempFile writes data to f and flushes it to disk so other processes can read it.
func writeTempFile(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", f.Name(), err)
	}
	return nil
}
