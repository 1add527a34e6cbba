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
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"client_id":     "json-id",
		"rate_interval": "5s",
		"redirect_wait": float64(2 * time.Second),
		"pdf":           true,
		"daily_quota":   0,
		"s3":            map[string]any{"bucket": "b", "endpoint": "http://minio:9000"},
	})

	t.Run("loads from --config", func(t *testing.T) {
		cfg := &Config{DailyQuota: 10, Dest: "kept"}
		require.NoError(t, parseJson(cfg, []string{"fetch", "--config", path}))

		assert.Equal(t, "json-id", cfg.ClientID)
		assert.Equal(t, 5*time.Second, cfg.RateInterval)
		assert.Equal(t, 2*time.Second, cfg.RedirectWait)
		assert.True(t, cfg.PDF)
		assert.Zero(t, cfg.DailyQuota, "explicit zero is applied")
		assert.Equal(t, "kept", cfg.Dest)
		assert.Equal(t, "b", cfg.S3.Bucket)
		assert.Equal(t, "http://minio:9000", cfg.S3.Endpoint)
	})

	t.Run("no flag, no changes", func(t *testing.T) {
		cfg := &Config{ClientID: "defaults"}
		require.NoError(t, parseJson(cfg, []string{"fetch"}))
		assert.Equal(t, "defaults", cfg.ClientID)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Error(t, parseJson(&Config{}, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		require.Error(t, parseJson(&Config{}, []string{"-c", filepath.Join(dir, "nope.json")}))
	})
}
