package driver_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/driver"
	"pytidy/internal/engine"
)

func TestMemoCache_HitMiss(t *testing.T) {
	c := driver.NewMemoCache(16)
	var d1, d2 driver.Digest
	d1[0] = 1
	d2[0] = 2

	out := &engine.Output{Path: "m/x.py"}
	c.Put("m/x.py", d1, driver.Memo{Out: out})

	_, ok := c.Get("m/x.py", d2)
	assert.False(t, ok, "different content is a miss")
	m, ok := c.Get("m/x.py", d1)
	require.True(t, ok)
	assert.Same(t, out, m.Out)

	boom := errors.New("boom")
	c.Put("m/y.py", d2, driver.Memo{Err: boom})
	m, ok = c.Get("m/y.py", d2)
	require.True(t, ok)
	assert.ErrorIs(t, m.Err, boom)
	assert.Equal(t, 2, c.Len())

	c.Forget("m/x.py")
	_, ok = c.Get("m/x.py", d1)
	assert.False(t, ok)
}
