package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductsSearchAndPrices(t *testing.T) {
	fs := testClient(t)
	cfg := testConfig()
	dao := NewProductsDAO(fs, cfg)
	ctx := context.Background()

	seed := func(id, name string, active bool) {
		_, err := fs.Collection(cfg.ProductsCollection).Doc(id).Set(ctx, map[string]interface{}{
			"active":     active,
			"name":       name,
			"name_lower": name, // seeded pre-normalized
		})
		require.NoError(t, err)
	}
	seed("prod_gold", "gold plan", true)
	seed("prod_gold_plus", "gold plan plus", true)
	seed("prod_silver", "silver plan", true)
	seed("prod_retired", "gold legacy", false)

	hits, err := dao.Search(ctx, "Gold", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3, "prefix match includes inactive products")
	assert.Equal(t, "prod_gold", hits[1].ID)

	active, err := dao.List(ctx, ListOptions{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 3)

	_, err = fs.Collection(cfg.ProductsCollection).Doc("prod_gold").
		Collection("prices").Doc("price_m").Set(ctx, map[string]interface{}{
		"product":     "prod_gold",
		"active":      true,
		"currency":    "usd",
		"unit_amount": int64(999),
	})
	require.NoError(t, err)
	_, err = fs.Collection(cfg.ProductsCollection).Doc("prod_gold").
		Collection("prices").Doc("price_old").Set(ctx, map[string]interface{}{
		"product": "prod_gold",
		"active":  false,
	})
	require.NoError(t, err)

	prices, err := dao.ListPrices(ctx, "prod_gold", ListOptions{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "price_m", prices[0].ID)
	assert.Equal(t, "prod_gold", prices[0].ProductID)
	assert.Equal(t, int64(999), prices[0].UnitAmount)

	_, err = dao.GetPrice(ctx, "prod_gold", "price_missing")
	assert.True(t, IsNotFound(err))
}
