package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://yodl.me", cfg.Yodl.Origin)
	assert.Equal(t, 5*time.Minute, cfg.Yodl.PaymentTimeout)
	assert.Equal(t, 4800*time.Millisecond, cfg.Reconcile.OverlayClose)
	assert.Equal(t, 5000*time.Millisecond, cfg.Reconcile.Reload)
	assert.Equal(t, 15*time.Minute, cfg.Reconcile.SessionIdle)
	assert.Equal(t, 10000, cfg.Reconcile.MaxSessions)
	assert.False(t, cfg.DB.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("YODL_ORIGIN", "https://pay.example")
	t.Setenv("RELOAD_MS", "100")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example", cfg.Yodl.Origin)
	assert.Equal(t, 100*time.Millisecond, cfg.Reconcile.Reload)
	assert.True(t, cfg.DB.Enabled)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_Invalida(t *testing.T) {
	t.Setenv("APP_BASE_URL", "sin-esquema")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("APP_BASE_URL", "https://ok.example/invoice")
	t.Setenv("SNOWFLAKE_NODE", "4096")
	_, err = config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss:w", DBName: "slip", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%3Aw@db:5432/slip?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
