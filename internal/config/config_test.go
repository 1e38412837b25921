package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "ALLOWED_ORIGINS", "CUSTOMERS_COLLECTION", "PRODUCTS_COLLECTION", "STRIPE_SESSION_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "customers", cfg.CustomersCollection)
	assert.Equal(t, "products", cfg.ProductsCollection)
	assert.Equal(t, 10*time.Second, cfg.SessionTimeout)
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "demo-firewand")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("STRIPE_SESSION_TIMEOUT", "3s")
	t.Setenv("CUSTOMERS_COLLECTION", "members")

	cfg := Load()
	assert.Equal(t, "demo-firewand", cfg.ProjectID)
	assert.Equal(t, "demo-firewand.appspot.com", cfg.StorageBucket)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.SessionTimeout)
	assert.Equal(t, "members", cfg.CustomersCollection)
}

func TestLoadIgnoresBadTimeout(t *testing.T) {
	t.Setenv("STRIPE_SESSION_TIMEOUT", "soon")
	assert.Equal(t, 10*time.Second, Load().SessionTimeout)
}
