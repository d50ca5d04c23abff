package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "1", cfg.DOMjudge.ContestID)
	assert.Equal(t, "3", cfg.Contest.GroupID)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DOMJUDGE_API_BASE", "https://judge.example.org")
	t.Setenv("DOMJUDGE_CONTEST_ID", "7")
	t.Setenv("DOMJUDGE_GROUP_ID", "5")
	t.Setenv("DOMJUDGE_TIMEOUT_SEC", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://judge.example.org", cfg.DOMjudge.APIBase)
	assert.Equal(t, "7", cfg.DOMjudge.ContestID)
	assert.Equal(t, "5", cfg.Contest.GroupID)
	assert.Equal(t, 10, cfg.DOMjudge.TimeoutSec)
}
