package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/wellstatus/internal/errors"
)

const (
	pidFile = "wellstatus.pid"
)

// DefaultPath returns the PID file location used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write writes the current process ID to the PID file at path. It fails
// with ErrAlreadyRunning when the file names a live process.
func Write(path string) error {
	errFactory := errors.New()
	if path == "" {
		path = DefaultPath()
	}

	if running, err := isRunning(path); err != nil {
		return err
	} else if running {
		return errFactory.WithData(errors.ErrAlreadyRunning, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func isRunning(path string) (bool, error) {
	errFactory := errors.New()

	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errFactory.Wrap(errors.ErrInternal, err)
	}

	// A file we cannot parse is left over from something else; overwrite it.
	pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
	if err != nil || pid <= 0 {
		return false, nil
	}
	if pid == os.Getpid() {
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	return process.Signal(syscall.Signal(0)) == nil, nil
}

// Remove removes the PID file at path.
func Remove(path string) error {
	errFactory := errors.New()
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}
