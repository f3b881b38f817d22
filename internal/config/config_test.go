package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bank")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "BANK_TREASURY", cfg.TreasuryAccountID)
	assert.Equal(t, "SAR", cfg.CurrencyCode)
	assert.Equal(t, 15*time.Minute, cfg.RegistrationSessionTTL)
	assert.Equal(t, "log", cfg.NotifyChannel)

	fee, err := cfg.TransferFeeMinor()
	require.NoError(t, err)
	assert.Equal(t, int64(25), fee)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "unset")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidFee(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bank")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TRANSFER_FEE", "free")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ZeroFee(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bank")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TRANSFER_FEE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	fee, err := cfg.TransferFeeMinor()
	require.NoError(t, err)
	assert.Equal(t, int64(0), fee)
}
