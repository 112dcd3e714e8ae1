package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, SlotBackendFile, cfg.CartSlotBackend)
	assert.Equal(t, "cart-storage.json", cfg.CartSlotPath)
	assert.Equal(t, CatalogBackendREST, cfg.CatalogBackend)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CART_SLOT_BACKEND", "redis")
	t.Setenv("CATALOG_BACKEND", "postgres")
	t.Setenv("ADMIN_EMAILS", "a@psvit.example,b@psvit.example")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, SlotBackendRedis, cfg.CartSlotBackend)
	assert.Equal(t, CatalogBackendPostgres, cfg.CatalogBackend)
	assert.Equal(t, []string{"a@psvit.example", "b@psvit.example"}, cfg.AdminEmails)
	assert.Len(t, cfg.KafkaBrokers, 2)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("bad port", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "70000")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad slot backend", func(t *testing.T) {
		t.Setenv("CART_SLOT_BACKEND", "s3")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad catalog backend", func(t *testing.T) {
		t.Setenv("CATALOG_BACKEND", "mysql")
		_, err := Load()
		assert.Error(t, err)
	})
}
