package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// HeldError reports a lock file owned by a live process
type HeldError struct {
	Path string
	PID  int
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%s is held by running process %d", e.Path, e.PID)
}

// PIDFile keeps a single simulation at a time writing to the save store.
// The file holds the owner's process ID; a file left behind by a dead
// process is taken over.
type PIDFile struct {
	path string
	held bool
}

// New creates a PIDFile for the given path
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the lock file location
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire claims the lock file, returning a *HeldError when another live
// process owns it
func (p *PIDFile) Acquire() error {
	if owner, ok := p.owner(); ok {
		if owner != os.Getpid() && isProcessRunning(owner) {
			return &HeldError{Path: p.path, PID: owner}
		}
	}
	_ = os.Remove(p.path)

	f, err := os.OpenFile(p.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	p.held = true
	return nil
}

// Release removes the lock file if this PIDFile acquired it
func (p *PIDFile) Release() error {
	if !p.held {
		return nil
	}
	p.held = false
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// owner reads the PID recorded in the lock file
func (p *PIDFile) owner() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// isProcessRunning probes the PID with signal 0
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true
	case errors.Is(err, syscall.EPERM):
		// exists, owned by someone else
		return true
	default:
		return false
	}
}
