package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	cfg, err := Load(Embedded())
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.Timeout)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:8081")
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, "medguide-api", cfg.JWT.Issuer)

	assert.InDelta(t, 10.3775, cfg.Nearby.DefaultCenter.Lat, 1e-9)
	assert.InDelta(t, 123.6503, cfg.Nearby.DefaultCenter.Lon, 1e-9)
	assert.Equal(t, 15, cfg.Nearby.HospitalLimit)
	assert.Equal(t, 10, cfg.Nearby.PharmacyLimit)
	assert.Equal(t, "pinned", cfg.Nearby.Pinned.Mode)
	assert.Equal(t, "toledo-general", cfg.Nearby.Pinned.ID)
	assert.Equal(t, "(032) 322 6447", cfg.Nearby.Pinned.Details["phone"])
	assert.Empty(t, cfg.Symptoms.Rules)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]byte("jwt:\n  secretKey: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, 60*time.Second, cfg.Server.Timeout)
}

func TestLoad_RulesOverride(t *testing.T) {
	raw := []byte(`
jwt:
  secretKey: s3cret
symptoms:
  rules:
    - keyword: Itch
      advice: Try an antihistamine.
`)
	cfg, err := Load(raw)
	require.NoError(t, err)
	require.Len(t, cfg.Symptoms.Rules, 1)
	assert.Equal(t, "Itch", cfg.Symptoms.Rules[0].Keyword)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MEDGUIDE_JWT_SECRETKEY", "from-env")

	cfg, err := Load(Embedded())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load([]byte("mode: test\n"))
	assert.Error(t, err)
}
