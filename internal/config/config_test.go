package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpage/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Engine.ConflictRetries)
}

func TestParse_OverridesDefaults(t *testing.T) {
	t.Setenv("BLOCKPAGE_TEST_PW", "s3cret")
	cfg, err := Parse([]byte(`
database:
  driver: postgres
  host: db.internal
  name: pages
  user: app
  password: ${BLOCKPAGE_TEST_PW}
engine:
  conflict_retries: 5
  retry_max_delay: 1s
log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 5, cfg.Engine.ConflictRetries)
	assert.Equal(t, time.Second, cfg.Engine.RetryMaxDelay)
	assert.Equal(t, 10*time.Millisecond, cfg.Engine.RetryMinDelay, "unset fields keep defaults")

	conn := cfg.ConnConfig()
	assert.Equal(t, domain.DatabaseDriverPostgres, conn.Driver)
	assert.Equal(t, "db.internal", conn.Host)
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"unknown driver":   "database:\n  driver: mongodb\n",
		"missing host":     "database:\n  driver: mysql\n",
		"negative retries": "engine:\n  conflict_retries: -1\n",
		"bad level":        "log:\n  level: loud\n",
		"inverted delays":  "engine:\n  retry_min_delay: 2s\n  retry_max_delay: 1s\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation")
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockpage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: /tmp/x.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
