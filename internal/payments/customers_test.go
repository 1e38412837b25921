package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIDForCustomer(t *testing.T) {
	fs := testClient(t)
	cfg := testConfig()
	dao := NewCustomersDAO(fs, cfg)
	ctx := context.Background()

	seed := func(uid, stripeID string) {
		_, err := fs.Collection(cfg.CustomersCollection).Doc(uid).Set(ctx, map[string]interface{}{
			"stripeId":   stripeID,
			"stripeLink": "https://dashboard.stripe.com/customers/" + stripeID,
		})
		require.NoError(t, err)
	}
	seed("alice", "cus_alice")
	seed("bob", "cus_dup")
	seed("carol", "cus_dup")

	uid, err := dao.UIDForCustomer(ctx, "cus_alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)

	_, err = dao.UIDForCustomer(ctx, "cus_missing")
	assert.True(t, IsNotFound(err), "zero matches must fail, got %v", err)

	// Two documents claiming the same provider customer is a data fault;
	// resolution must refuse rather than pick one.
	_, err = dao.UIDForCustomer(ctx, "cus_dup")
	assert.True(t, IsNotFound(err), "ambiguous matches must fail, got %v", err)

	_, err = dao.UIDForCustomer(ctx, "")
	assert.True(t, IsInvalidArgument(err))
}

func TestCustomersGetAndList(t *testing.T) {
	fs := testClient(t)
	cfg := testConfig()
	dao := NewCustomersDAO(fs, cfg)
	ctx := context.Background()

	_, err := fs.Collection(cfg.CustomersCollection).Doc("alice").Set(ctx, map[string]interface{}{
		"stripeId": "cus_alice",
		"email":    "alice@example.com",
	})
	require.NoError(t, err)

	c, err := dao.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", c.UID)
	assert.Equal(t, "cus_alice", c.StripeID)
	assert.Equal(t, "alice@example.com", c.Email)

	_, err = dao.Get(ctx, "nobody")
	assert.True(t, IsNotFound(err))

	all, err := dao.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "alice", all[0].UID)
}
