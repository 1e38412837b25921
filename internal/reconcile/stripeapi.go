package reconcile

import (
	"context"

	"github.com/stripe/stripe-go/v78"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/price"
	"github.com/stripe/stripe-go/v78/subscription"
)

// StripeAPI is the provider round-trip surface the reconciler depends on.
// Webhook payloads omit price tiers and nested subscription expansions, so
// these calls fetch what the event cannot carry.
type StripeAPI interface {
	// GetPrice retrieves a price with its tiers expanded.
	GetPrice(ctx context.Context, id string) (*stripe.Price, error)
	// GetSubscription retrieves a subscription with the default payment
	// method and each item's price.product expanded.
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	// ListCheckoutLineItems lists the line items of a checkout session.
	ListCheckoutLineItems(ctx context.Context, sessionID string) ([]*stripe.LineItem, error)
}

// LiveStripeAPI talks to Stripe. The secret key is installed process-wide
// via stripe.Key by the caller.
type LiveStripeAPI struct{}

func (LiveStripeAPI) GetPrice(ctx context.Context, id string) (*stripe.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	params.AddExpand("tiers")
	return price.Get(id, params)
}

func (LiveStripeAPI) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("default_payment_method")
	params.AddExpand("items.data.price.product")
	return subscription.Get(id, params)
}

func (LiveStripeAPI) ListCheckoutLineItems(ctx context.Context, sessionID string) ([]*stripe.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	out := []*stripe.LineItem{}
	it := checkoutsession.ListLineItems(params)
	for it.Next() {
		out = append(out, it.LineItem())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
