//go:build !integration

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.38", cfg.Allocation.TargetMargin.String())
	assert.True(t, cfg.Allocation.PackagingCost.IsZero())
	assert.Equal(t, 5*time.Second, cfg.Allocation.SolverTimeout)
	assert.Equal(t, 20000, cfg.Allocation.SolverMaxNodes)
	assert.Equal(t, 24*time.Hour, cfg.Allocation.PaymentDeadline)
	assert.Equal(t, 10*time.Minute, cfg.Allocation.SweepInterval)
	assert.Equal(t, 5, cfg.Login.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Login.Lockout)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
}

func TestLoadMissingSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.EqualError(t, err, "missing jwt secret")

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "")

	_, err = Load()
	assert.EqualError(t, err, "missing database password")
}

func TestLoadInvalidAllocation(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("SOLVER_MAX_NODES", "-3")

	_, err := Load()
	assert.EqualError(t, err, "invalid SOLVER_MAX_NODES")
}
