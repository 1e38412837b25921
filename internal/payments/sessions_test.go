package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
)

type fakeSessionAPI struct {
	checkoutCalls int
	portalCalls   int
	customerCalls int

	checkout *stripe.CheckoutSession
	portal   *stripe.BillingPortalSession

	// block makes every call wait for context expiry, simulating a slow
	// provider.
	block bool
}

func (f *fakeSessionAPI) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.checkoutCalls++
	if f.block {
		<-params.Context.Done()
		return nil, params.Context.Err()
	}
	return f.checkout, nil
}

func (f *fakeSessionAPI) NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	f.portalCalls++
	if f.block {
		<-params.Context.Done()
		return nil, params.Context.Err()
	}
	return f.portal, nil
}

func (f *fakeSessionAPI) NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.customerCalls++
	return &stripe.Customer{ID: "cus_fake"}, nil
}

func newTestSessions(api SessionAPI, timeout time.Duration) *Sessions {
	cfg := Config{SessionTimeout: timeout}
	cfg.applyDefaults()
	return NewSessions(nil, cfg, api)
}

func TestCreateCheckoutValidation(t *testing.T) {
	api := &fakeSessionAPI{}
	s := newTestSessions(api, 0)

	_, err := s.CreateCheckout(context.Background(), "", CheckoutParams{PriceID: "price_1", SuccessURL: "https://a", CancelURL: "https://b"})
	assert.True(t, IsUnauthenticated(err))

	_, err = s.CreateCheckout(context.Background(), "uid1", CheckoutParams{SuccessURL: "https://a", CancelURL: "https://b"})
	assert.True(t, IsInvalidArgument(err), "missing price id must fail fast")

	_, err = s.CreateCheckout(context.Background(), "uid1", CheckoutParams{PriceID: "price_1"})
	assert.True(t, IsInvalidArgument(err), "missing urls must fail fast")

	assert.Zero(t, api.checkoutCalls, "no network call may happen on invalid input")
	assert.Zero(t, api.customerCalls)
}

func TestCreatePortalValidation(t *testing.T) {
	api := &fakeSessionAPI{}
	s := newTestSessions(api, 0)

	_, err := s.CreatePortal(context.Background(), "uid1", PortalParams{Customer: "cus_1"})
	assert.True(t, IsInvalidArgument(err), "empty returnUrl must fail fast")
	assert.Zero(t, api.portalCalls, "no network call may happen on invalid input")
}

func TestCreateCheckoutReturnsSessionUnmodified(t *testing.T) {
	want := &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}
	api := &fakeSessionAPI{checkout: want}
	s := newTestSessions(api, 0)

	got, err := s.CreateCheckout(context.Background(), "uid1", CheckoutParams{
		Customer:   "cus_1",
		PriceID:    "price_1",
		SuccessURL: "https://app.example.com/ok",
		CancelURL:  "https://app.example.com/cancel",
	})
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 1, api.checkoutCalls)
	assert.Zero(t, api.customerCalls, "explicit customer id skips resolution")
}

func TestEnsureCustomerMapping(t *testing.T) {
	fs := testClient(t)
	cfg := testConfig()
	api := &fakeSessionAPI{checkout: &stripe.CheckoutSession{ID: "cs_1"}}
	s := NewSessions(fs, cfg, api)
	ctx := context.Background()

	params := CheckoutParams{
		PriceID:    "price_1",
		SuccessURL: "https://app.example.com/ok",
		CancelURL:  "https://app.example.com/cancel",
	}

	// An existing mapping is reused, never re-minted.
	_, err := fs.Collection(cfg.CustomersCollection).Doc("alice").Set(ctx, map[string]interface{}{
		"stripeId": "cus_alice",
	})
	require.NoError(t, err)
	_, err = s.CreateCheckout(ctx, "alice", params)
	require.NoError(t, err)
	assert.Zero(t, api.customerCalls)

	// A user without one gets a provider customer created and recorded.
	_, err = s.CreateCheckout(ctx, "bob", params)
	require.NoError(t, err)
	assert.Equal(t, 1, api.customerCalls)
	doc, err := fs.Collection(cfg.CustomersCollection).Doc("bob").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cus_fake", doc.Data()["stripeId"])
}

func TestEnsureCustomerReadFailureDoesNotCreate(t *testing.T) {
	fs := testClient(t)
	cfg := testConfig()
	api := &fakeSessionAPI{checkout: &stripe.CheckoutSession{ID: "cs_1"}}
	s := NewSessions(fs, cfg, api)

	// A canceled context makes the mapping read fail without deciding
	// whether a mapping exists; creation must not proceed.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateCheckout(ctx, "alice", CheckoutParams{
		PriceID:    "price_1",
		SuccessURL: "https://a",
		CancelURL:  "https://b",
	})
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Zero(t, api.customerCalls, "a failed read must not mint a duplicate customer")
}

func TestCreateCheckoutTimeout(t *testing.T) {
	api := &fakeSessionAPI{block: true}
	s := newTestSessions(api, 20*time.Millisecond)

	_, err := s.CreateCheckout(context.Background(), "uid1", CheckoutParams{
		Customer:   "cus_1",
		PriceID:    "price_1",
		SuccessURL: "https://a",
		CancelURL:  "https://b",
	})
	require.Error(t, err)
	assert.True(t, IsDeadlineExceeded(err), "expiry must surface as a deadline kind, got %v", err)
}

func TestCreatePortalTimeout(t *testing.T) {
	api := &fakeSessionAPI{block: true}
	s := newTestSessions(api, 20*time.Millisecond)

	_, err := s.CreatePortal(context.Background(), "uid1", PortalParams{
		Customer:  "cus_1",
		ReturnURL: "https://app.example.com/billing",
	})
	require.Error(t, err)
	assert.True(t, IsDeadlineExceeded(err))
}
