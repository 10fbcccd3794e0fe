package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pytidy/internal/config"
	"pytidy/internal/driver"
)

func TestResultKey(t *testing.T) {
	cfg := config.Default()
	k := driver.ConfigDigest(cfg, false)
	assert.Equal(t, k, driver.ConfigDigest(config.Default(), false), "deterministic")
	assert.NotEqual(t, k, driver.ConfigDigest(cfg, true), "mode is part of the key")

	cfg.MaxLineLength = 120
	assert.NotEqual(t, k, driver.ConfigDigest(cfg, false), "config is part of the key")

	a := driver.ResultKey([]byte("x = 1\n"), k)
	assert.Equal(t, a, driver.ResultKey([]byte("x = 1\n"), k))
	assert.NotEqual(t, a, driver.ResultKey([]byte("x = 2\n"), k))
	assert.False(t, a.IsZero())
	assert.Len(t, a.String(), 64)
}
