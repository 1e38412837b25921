package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetSet(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("products-dao")
	assert.False(t, ok)

	dao := &ProductsDAO{}
	r.Set("products-dao", dao)

	got, ok := r.Get("products-dao")
	require.True(t, ok)
	assert.Same(t, dao, got)

	// Second set wins; a benign race constructing a DAO twice resolves
	// to the last installed instance.
	other := &ProductsDAO{}
	r.Set("products-dao", other)
	got, _ = r.Get("products-dao")
	assert.Same(t, other, got)
}

func TestClientRegistriesAreIsolated(t *testing.T) {
	a := NewClient(nil, nil, Config{})
	b := NewClient(nil, nil, Config{})

	a.Registry().Set("marker", "a")
	_, ok := b.Registry().Get("marker")
	assert.False(t, ok, "registries must not share state across clients")
}

func TestClientCachesDAOs(t *testing.T) {
	c := NewClient(nil, nil, Config{})
	assert.Same(t, c.Customers(), c.Customers())
	assert.Same(t, c.Subscriptions(), c.Subscriptions())
	assert.Same(t, c.Invoices(), c.Invoices())
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()
	assert.Equal(t, "customers", cfg.CustomersCollection)
	assert.Equal(t, "products", cfg.ProductsCollection)
	assert.Equal(t, int64(10), int64(cfg.SessionTimeout.Seconds()))
}
