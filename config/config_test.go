package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Pricing.Steps)
	assert.Equal(t, 100000, cfg.Pricing.Paths)
	assert.Equal(t, int64(42), cfg.Pricing.Seed)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.SlackEnabled())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "optprice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pricing:
  steps: 1000
  paths: 20000
  antithetic: true
logging:
  level: debug
`), 0o644))

	t.Setenv("OPTPRICE_PATHS", "5000")
	t.Setenv("SLACK_APP_TOKEN", "xapp-1")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Pricing.Steps)
	assert.Equal(t, 5000, cfg.Pricing.Paths, "environment overrides the file")
	assert.True(t, cfg.Pricing.Antithetic)
	assert.Equal(t, int64(42), cfg.Pricing.Seed, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.SlackEnabled())
}

func TestLoad_EnvFile(t *testing.T) {
	require.NoError(t, os.Unsetenv("OPTPRICE_SEED"))
	t.Cleanup(func() { os.Unsetenv("OPTPRICE_SEED") })

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OPTPRICE_SEED=7\n"), 0o600))

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Pricing.Seed)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"non-numeric steps": {"OPTPRICE_STEPS": "many"},
		"zero paths":        {"OPTPRICE_PATHS": "0"},
		"negative workers":  {"OPTPRICE_WORKERS": "-2"},
		"bad seed":          {"OPTPRICE_SEED": "4.2"},
		"bad level":         {"OPTPRICE_LOG_LEVEL": "loud"},
		"bad antithetic":    {"OPTPRICE_ANTITHETIC": "sometimes"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("", "")
			require.Error(t, err)

			var cfgErr *Error
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestLoad_MissingYAML(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.Error(t, err)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn")

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown", "steps", 500)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"steps":500`)
}

func TestNewLogger_File(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.File = filepath.Join(t.TempDir(), "optprice.log")

	NewLogger(cfg).Info("priced", "model", "Binomial")

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"model":"Binomial"`)
}
