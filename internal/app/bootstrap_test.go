package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estudio/internal/app"
	"estudio/internal/config"
	"estudio/internal/testutils"
)

type flakyPinger struct {
	calls     int
	failUntil int
}

func (p *flakyPinger) PingContext(context.Context) error {
	p.calls++
	if p.calls <= p.failUntil {
		return errors.New("connection refused")
	}
	return nil
}

func TestPingWithRetry(t *testing.T) {
	t.Run("Success First Try", func(t *testing.T) {
		p := &flakyPinger{}
		assert.NoError(t, app.PingWithRetry(context.Background(), p, 3, time.Millisecond))
		assert.Equal(t, 1, p.calls)
	})

	t.Run("Retries", func(t *testing.T) {
		p := &flakyPinger{failUntil: 2}
		assert.NoError(t, app.PingWithRetry(context.Background(), p, 5, time.Millisecond))
		assert.Equal(t, 3, p.calls)
	})

	t.Run("Gives Up", func(t *testing.T) {
		p := &flakyPinger{failUntil: 10}
		assert.Error(t, app.PingWithRetry(context.Background(), p, 3, time.Millisecond))
		assert.Equal(t, 3, p.calls)
	})

	t.Run("Zero Attempts Still Pings", func(t *testing.T) {
		p := &flakyPinger{}
		assert.NoError(t, app.PingWithRetry(context.Background(), p, 0, time.Millisecond))
		assert.Equal(t, 1, p.calls)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := &flakyPinger{failUntil: 10}
		err := app.PingWithRetry(ctx, p, 5, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBootstrap_DBDown(t *testing.T) {
	cfg := &config.Config{
		DBHost:                     "localhost",
		DBPort:                     54322, // Random port likely closed
		DBUser:                     "test",
		DBPass:                     "test",
		DBName:                     "test",
		DBSSLMode:                  "disable",
		BootstrapRetryAttempts:     1,
		BootstrapRetryDelaySeconds: 0,
	}

	start := time.Now()
	deps, err := app.Bootstrap(context.Background(), cfg)

	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "failed to ping db")
	assert.NotContains(t, err.Error(), "password")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBootstrap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	deps, err := app.Bootstrap(context.Background(), suite.GetAppConfig())
	require.NoError(t, err)
	defer deps.DB.Close()

	// Migrations already ran in the suite; a second Up is a no-op.
	for _, table := range []string{"clientes", "causas", "documentos", "formatos_legales", "honorarios", "pagos_cuotas", "gastos", "settings"} {
		var exists bool
		err = deps.DB.QueryRow("SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)", table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}
}
