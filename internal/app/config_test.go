package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/campusdesk/campusdesk/internal/testing/guard"
)

func setTokenSecrets(t *testing.T, access, refresh string) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", access)
	t.Setenv("REFRESH_TOKEN_SECRET", refresh)
}

func TestLoadConfigDefaults(t *testing.T) {
	setTokenSecrets(t, "access-secret", "refresh-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsSharedSecret(t *testing.T) {
	setTokenSecrets(t, "same-secret", "same-secret")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	setTokenSecrets(t, "", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestIsProduction(t *testing.T) {
	setTokenSecrets(t, "access-secret", "refresh-secret")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv("CAMPUSDESK_TEST_MODE", "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv("CAMPUSDESK_TEST_MODE", "0")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv("CAMPUSDESK_TEST_MODE", "1")
	RefreshTestMode()
}
