package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  addr: \":8080\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.GRPC.Addr, "grpc stays disabled")
	assert.Equal(t, "", cfg.Postgres.DSN, "journal stays disabled")
	assert.Equal(t, "cleanup", cfg.Rooms.DisconnectPolicy)
	assert.Equal(t, 16, cfg.Rooms.CodeAttempts)
	assert.Equal(t, 15*time.Second, cfg.WS.PingEvery)
	assert.Equal(t, 5*time.Second, cfg.WS.WriteTimeout)
	assert.Equal(t, int64(64<<10), cfg.WS.ReadLimit)
	assert.Equal(t, 64, cfg.WS.SendBuffer)
	assert.Equal(t, 256, cfg.Journal.Buffer)
	assert.Equal(t, "bowling-server", cfg.Logging.Service)
	assert.Equal(t, "std", cfg.Logging.Backend)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
http:
  addr: ":9000"
ws:
  pingEvery: 2s
  sendBuffer: 8
rooms:
  disconnectPolicy: retain
  codeAttempts: 3
cors:
  allowedOrigins: ["https://lanes.example.com"]
`))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.WS.PingEvery)
	assert.Equal(t, 8, cfg.WS.SendBuffer)
	assert.Equal(t, "retain", cfg.Rooms.DisconnectPolicy)
	assert.Equal(t, 3, cfg.Rooms.CodeAttempts)
	assert.Equal(t, []string{"https://lanes.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestParse_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"missing http addr": "grpc:\n  addr: \":9090\"\n",
		"unknown policy":    "http:\n  addr: \":8080\"\nrooms:\n  disconnectPolicy: migrate\n",
		"negative attempts": "http:\n  addr: \":8080\"\nrooms:\n  codeAttempts: -1\n",
		"bad yaml":          "http: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_FromEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":7070\"\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestLoadConfig_ShippedFileIsValid(t *testing.T) {
	t.Setenv("CONFIG_PATH", "config.yaml")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":9090", cfg.GRPC.Addr)
}
