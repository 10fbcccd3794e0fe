package driver_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/config"
	"pytidy/internal/driver"
	"pytidy/internal/engine"
	"pytidy/internal/version"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := driver.NewDiskCache(fs, "/cache/pytidy")
	require.NoError(t, err)

	src := "import os\ndef do(a):\n    print(a*a)\n"
	out, err := engine.Run(src, config.Default())
	require.NoError(t, err)
	key := driver.ResultKey([]byte(src), driver.ConfigDigest(config.Default(), false))

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(key, out))
	got, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, out.TransformedText, got.TransformedText)
	assert.Equal(t, out.FindingsBefore, got.FindingsBefore)
	assert.Equal(t, out.FindingsAfter, got.FindingsAfter)
	assert.Equal(t, out.Diff, got.Diff)
	assert.Equal(t, out.Report.Counts, got.Report.Counts)
	assert.Equal(t, out.Report.Lines, got.Report.Lines)
	require.Len(t, got.Report.Actions, len(out.Report.Actions))
	for i := range out.Report.Actions {
		assert.Equal(t, out.Report.Actions[i].Kind, got.Report.Actions[i].Kind)
		assert.Equal(t, out.Report.Actions[i].Line, got.Report.Actions[i].Line)
	}
	assert.Nil(t, got.Original, "units are not cached")
	assert.True(t, got.Changed())
}

func TestDiskCacheInvalidation(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := driver.NewDiskCache(fs, "/cache")
	require.NoError(t, err)
	var key driver.Digest
	key[0] = 7
	require.NoError(t, c.Put(key, &engine.Output{TransformedText: "x = 1\n"}))

	orig := version.Version
	version.Version = "9.9.9"
	_, ok, err := c.Get(key)
	version.Version = orig
	require.NoError(t, err)
	assert.False(t, ok, "entries of another version are misses")

	_, ok, _ = c.Get(key)
	assert.True(t, ok)
	require.NoError(t, c.DropAll())
	_, ok, err = c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	var nilCache *driver.DiskCache
	require.NoError(t, nilCache.Put(key, &engine.Output{}))
	_, ok, err = nilCache.Get(key)
	assert.NoError(t, err)
	assert.False(t, ok)
}
