package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                      ":8080",
		"database_dsn":                   "postgres://localhost/fpl",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "2h",
		"predictions_bucket":             "bucket",
		"predictions_key":                "latest.json",
		"season":                         "2024-25",
		"last_gameweek":                  38,
		"news_cache_ttl":                 "5m",
		"news_feeds": []map[string]string{
			{"name": "Local", "url": "http://127.0.0.1/rss"},
		},
		"auth_rate_limit": 1.5,
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		parseJson(cfg, []string{"-config", pathFlag})

		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "postgres://localhost/fpl", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 2*time.Hour, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "bucket", cfg.PredictionsBucket)
		assert.Equal(t, "latest.json", cfg.PredictionsKey)
		assert.Equal(t, "2024-25", cfg.Season)
		assert.Equal(t, 38, cfg.LastGameweek)
		assert.Equal(t, 5*time.Minute, cfg.NewsCacheTTL)
		assert.Equal(t, []FeedSource{{Name: "Local", URL: "http://127.0.0.1/rss"}}, cfg.NewsFeeds)
		assert.InDelta(t, 1.5, cfg.AuthRateLimit, 0.0001)
	})

	t.Run("absent fields keep current values", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", pathFlag})

		assert.Equal(t, "https://fantasy.premierleague.com/api", cfg.FPLBaseURL)
		assert.Equal(t, 7*time.Second, cfg.UpstreamTimeout)
		assert.Equal(t, "http://localhost:5173", cfg.ClientOrigin)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		cfg := &Config{
			HTTPAddr:    "defaults:1234",
			DatabaseDSN: "dsn",
			SecretKey:   "key",
			Season:      "2022-23",
		}
		parseJson(cfg, nil)

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, "dsn", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, "2022-23", cfg.Season)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg, []string{"-config", bad}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg, []string{"-config", filepath.Join(dir, "nope.json")}) })
	})
}
