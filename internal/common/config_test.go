package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Shopify: ShopifyConfig{
			ShopURL:     "example.myshopify.com",
			AccessToken: "shpat_test",
			APIVersion:  "2024-10",
			Timeout:     30 * time.Second,
			RateLimit:   2,
		},
		Batch: BatchConfig{Workers: 4, PrintAttempts: 3, TagPrinted: true},
		Print: PrintConfig{OutputDir: "./output", Copies: 1},
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "2024-10", cfg.Shopify.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.Shopify.Timeout)
	assert.Equal(t, 5, cfg.Shopify.MaxAttempts)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 3, cfg.Batch.PrintAttempts)
	assert.True(t, cfg.Batch.TagPrinted)
	assert.Equal(t, 1, cfg.Print.Copies)
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("SHOP_URL", "demo.myshopify.com")
	t.Setenv("BATCH_WORKERS", "8")
	t.Setenv("TAG_PRINTED", "false")
	t.Setenv("SHOPIFY_TIMEOUT", "5s")

	cfg := LoadConfig()
	assert.Equal(t, "demo.myshopify.com", cfg.Shopify.ShopURL)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.False(t, cfg.Batch.TagPrinted)
	assert.Equal(t, 5*time.Second, cfg.Shopify.Timeout)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Shopify.ShopURL = ""
	cfg.Batch.Workers = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Both problems are reported together.
	assert.Contains(t, err.Error(), "SHOP_URL")
	assert.Contains(t, err.Error(), "BATCH_WORKERS")
}

func TestValidatorRules(t *testing.T) {
	assert.NotNil(t, Required("f", ""))
	assert.NotNil(t, Required("f", "   "))
	assert.Nil(t, Required("f", "x"))
	assert.NotNil(t, Required("f", (*string)(nil)))

	assert.NotNil(t, AtLeast(1)("f", 0))
	assert.Nil(t, AtLeast(1)("f", 1))

	assert.NotNil(t, Positive("f", time.Duration(0)))
	assert.Nil(t, Positive("f", time.Second))
	assert.NotNil(t, Positive("f", float64(0)))
}
