package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "REPLIERS_BASE_URL", "MLS_COUNTY", "OPENAI_MODEL", "SITE_URL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://api.repliers.io", cfg.MLS.BaseURL)
	assert.Equal(t, "Nantucket", cfg.MLS.County)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "https://nantuckethouses.com", cfg.SiteURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REPLIERS_API_KEY", "key-abc")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("META_PAGE_ID", "page-1")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "key-abc", cfg.MLS.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "page-1", cfg.Meta.PageID)
}
