package profiling_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcodd23/go-micro-dbpool/pkg/profiling"
	"github.com/stretchr/testify/require"
)

func TestProfiles(t *testing.T) {
	dir := t.TempDir()

	stop, err := profiling.StartCPUProfile(filepath.Join(dir, "cpu.prof"))
	require.NoError(t, err)
	stop()

	require.NoError(t, profiling.CaptureMemoryProfile(filepath.Join(dir, "mem.prof")))

	info, err := os.Stat(filepath.Join(dir, "mem.prof"))
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestProfileInvalidPath(t *testing.T) {
	_, err := profiling.StartCPUProfile(filepath.Join(t.TempDir(), "missing", "cpu.prof"))
	require.Error(t, err)

	require.Error(t, profiling.CaptureMemoryProfile(filepath.Join(t.TempDir(), "missing", "mem.prof")))
}
