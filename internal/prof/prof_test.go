package prof

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWritesProfiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Start(fs, Options{CPU: "/p/cpu.out", Mem: "/p/mem.out", Trace: "/p/trace.out"})
	require.NoError(t, err)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	for _, path := range []string{"/p/cpu.out", "/p/mem.out", "/p/trace.out"} {
		info, err := fs.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}
}

func TestDisabledSession(t *testing.T) {
	assert.False(t, Options{}.Enabled())
	s, err := Start(afero.NewMemMapFs(), Options{})
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}

func TestWriteHeap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeap(&buf))
	assert.NotZero(t, buf.Len())
}
