package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
telegram:
  token: "123:abc"
backend:
  base_url: "http://localhost:8080"
locations:
  - id: main
    name: "Main building"
    floors: [1, 2, 3]
  - id: annex
    name: "Annex"
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "/api/bridge", cfg.Backend.BridgePath)
	assert.Equal(t, "/api/bridge/cancel", cfg.Backend.CancelPath)
	assert.Equal(t, "none", cfg.Backend.AuthScheme)
	assert.Equal(t, 3, cfg.Backend.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Backend.RetryBackoffBase.Std())
	assert.Equal(t, 10*time.Second, cfg.Backend.RequestTimeout.Std())
	assert.Equal(t, time.Hour, cfg.Booking.TTL.Std())
	assert.Equal(t, 80, cfg.Booking.DurationMinutes)
	assert.Equal(t, "data/users.json", cfg.Storage.Path)
}

func TestParse_LocationLookup(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	location, ok := cfg.Location("main")
	require.True(t, ok)
	assert.Equal(t, "Main building", location.Name)
	assert.Equal(t, []int{1, 2, 3}, location.Floors)

	_, ok = cfg.Location("nowhere")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	// Missing telegram token.
	_, err := Parse([]byte(`
backend:
  base_url: "http://localhost:8080"
locations:
  - id: main
    name: "Main building"
`))
	assert.Error(t, err)

	// No locations configured.
	_, err = Parse([]byte(`
telegram:
  token: "123:abc"
backend:
  base_url: "http://localhost:8080"
`))
	assert.Error(t, err)

	// Unknown auth scheme.
	_, err = Parse([]byte(`
telegram:
  token: "123:abc"
backend:
  base_url: "http://localhost:8080"
  auth_scheme: voodoo
locations:
  - id: main
    name: "Main building"
`))
	assert.Error(t, err)

	// Not YAML at all.
	_, err = Parse([]byte("{{{"))
	assert.Error(t, err)
}
