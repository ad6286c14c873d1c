package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresTMDBKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Chdir(t.TempDir())

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingTMDBKey)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 50, cfg.RecentLimit)
	assert.Equal(t, GenreMatchSubstring, cfg.GenreMatch)
	assert.False(t, cfg.WordBoundaryGenres())
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "key")
	t.Setenv("GENRE_MATCH", "word")
	t.Setenv("RECENT_LIMIT", "20")
	t.Setenv("FETCHER_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.WordBoundaryGenres())
	assert.Equal(t, 20, cfg.RecentLimit)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "key")
	t.Setenv("GENRE_MATCH", "fuzzy")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("SERVER_PORT", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tmdb_api_key: filekey
server_port: "9090"
timeout: 5s
recent_limit: 10
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "filekey", cfg.TMDBAPIKey)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.RecentLimit)
}

func TestParseEnvFile(t *testing.T) {
	vars := parseEnvFile([]byte(`
# comment
export TMDB_API_KEY="abc"
REDIS_URL = 'redis://localhost:6379/0'
=novalue
BROKEN
`))
	assert.Equal(t, map[string]string{
		"TMDB_API_KEY": "abc",
		"REDIS_URL":    "redis://localhost:6379/0",
	}, vars)
}
