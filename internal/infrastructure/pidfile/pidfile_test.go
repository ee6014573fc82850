package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_WritesOwnPID(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "autopilot.pid")
	lock := New(path)

	// Act
	err := lock.Acquire()

	// Assert
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestAcquire_HeldByLiveProcess(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "autopilot.pid")
	// PID 1 always exists
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0644))
	lock := New(path)

	// Act
	err := lock.Acquire()

	// Assert
	var held *HeldError
	require.True(t, errors.As(err, &held), "got %v", err)
	assert.Equal(t, 1, held.PID)

	// Release must not remove a file it never acquired
	require.NoError(t, lock.Release())
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestAcquire_TakesOverStaleFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "not a pid"},
		{name: "dead process", content: fmt.Sprintf("%d\n", 1<<22+7)},
		{name: "own pid", content: fmt.Sprintf("%d\n", os.Getpid())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			path := filepath.Join(t.TempDir(), "autopilot.pid")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			lock := New(path)

			// Act
			err := lock.Acquire()

			// Assert
			require.NoError(t, err)
			owner, ok := lock.owner()
			assert.True(t, ok)
			assert.Equal(t, os.Getpid(), owner)
			require.NoError(t, lock.Release())
		})
	}
}
