package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("madspild")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "https://api.sallinggroup.com", cfg.Upstream.BaseURL)
	assert.Empty(t, cfg.Upstream.APIKey)
	assert.Equal(t, "Denmark", cfg.Geocoder.Country)
	assert.Equal(t, "madspild:", cfg.Valkey.Prefix)
	assert.Equal(t, "madspild", cfg.Telemetry.ServiceName)
	assert.Equal(t, 10000, cfg.Sessions.Max)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoad_Env(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MADSPILD_SERVER_PORT", "8081")
	t.Setenv("MADSPILD_NATS_URL", "nats://nats:4222")
	t.Setenv("MADSPILD_LOG_LEVEL", "debug")

	cfg, err := Load("madspild")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_APIKeyAliases(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SALLING_API_KEY", "from-salling")

	cfg, err := Load("madspild")
	require.NoError(t, err)
	assert.Equal(t, "from-salling", cfg.Upstream.APIKey)

	t.Setenv("MADSPILD_UPSTREAM_API_KEY", "from-prefix")
	cfg, err = Load("madspild")
	require.NoError(t, err)
	assert.Equal(t, "from-prefix", cfg.Upstream.APIKey, "prefixed variable wins")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("madspild")
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Upstream.BaseURL = "not a url"
	cfg.Search.Timeout = cfg.Upstream.Timeout
	cfg.Log.Format = "xml"

	err = cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"server.port", "upstream.base_url", "search.timeout", "log.format"} {
		assert.True(t, strings.Contains(msg, want), "missing %s in %q", want, msg)
	}
}

func TestValidate_Telemetry(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("madspild")
	require.NoError(t, err)

	cfg.Telemetry.Enabled = true
	cfg.Telemetry.OTLPEndpoint = ""
	assert.Error(t, cfg.Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it
// changes the working directory and restores it when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
