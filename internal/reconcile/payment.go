package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"firewand/internal/payments"

	"cloud.google.com/go/firestore"
	"github.com/stripe/stripe-go/v78"
)

// RecordPayment mirrors a one-time payment event under the customer,
// keyed by the payment intent id.
func (r *Reconciler) RecordPayment(ctx context.Context, pi *stripe.PaymentIntent) error {
	if pi.Customer == nil || pi.Customer.ID == "" {
		return fmt.Errorf("%w: payment %s carries no customer", payments.ErrInvalidArgument, pi.ID)
	}

	uid, err := r.client.Customers().UIDForCustomer(ctx, pi.Customer.ID)
	if err != nil {
		return fmt.Errorf("payment %s: %w", pi.ID, err)
	}

	data := map[string]interface{}{
		"status":          string(pi.Status),
		"amount":          pi.Amount,
		"amount_received": pi.AmountReceived,
		"currency":        string(pi.Currency),
		"created":         time.Unix(pi.Created, 0).UTC(),
	}
	if pi.Invoice != nil {
		data["invoice"] = pi.Invoice.ID
	}

	ref := r.client.Customers().Doc(uid).Collection("payments").Doc(pi.ID)
	if _, err := ref.Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("write payment %s: %w", pi.ID, err)
	}
	log.Printf("reconcile: payment recorded id=%s uid=%s status=%s", pi.ID, uid, pi.Status)
	return nil
}

// CheckoutCompleted finishes a completed checkout session. Subscription
// checkouts defer to the subscription handler; payment-mode checkouts get
// their line items listed from the provider (the event omits them) and
// the resolved price refs attached to the payment document. The payment
// is keyed by the intent id, falling back to the invoice id when the
// session produced no intent.
func (r *Reconciler) CheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.Mode == stripe.CheckoutSessionModeSubscription {
		if sess.Subscription == nil || sess.Customer == nil {
			return fmt.Errorf("%w: checkout %s lacks subscription or customer", payments.ErrInvalidArgument, sess.ID)
		}
		return r.SubscriptionChanged(ctx, sess.Subscription.ID, sess.Customer.ID)
	}

	if sess.Customer == nil || sess.Customer.ID == "" {
		return fmt.Errorf("%w: checkout %s carries no customer", payments.ErrInvalidArgument, sess.ID)
	}
	uid, err := r.client.Customers().UIDForCustomer(ctx, sess.Customer.ID)
	if err != nil {
		return fmt.Errorf("checkout %s: %w", sess.ID, err)
	}

	paymentID := ""
	if sess.PaymentIntent != nil {
		paymentID = sess.PaymentIntent.ID
	} else if sess.Invoice != nil {
		paymentID = sess.Invoice.ID
	}
	if paymentID == "" {
		return fmt.Errorf("%w: checkout %s produced neither payment intent nor invoice", payments.ErrInvalidArgument, sess.ID)
	}

	lines, err := r.api.ListCheckoutLineItems(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("list line items for checkout %s: %w", sess.ID, err)
	}

	products := r.client.Products()
	priceRefs := []*firestore.DocumentRef{}
	for _, li := range lines {
		if li.Price == nil || li.Price.Product == nil {
			continue
		}
		priceRefs = append(priceRefs, products.PriceDoc(li.Price.Product.ID, li.Price.ID))
	}

	ref := r.client.Customers().Doc(uid).Collection("payments").Doc(paymentID)
	if _, err := ref.Set(ctx, map[string]interface{}{"prices": priceRefs}, firestore.MergeAll); err != nil {
		return fmt.Errorf("attach line items to payment %s: %w", paymentID, err)
	}
	log.Printf("reconcile: checkout completed session=%s uid=%s payment=%s items=%d", sess.ID, uid, paymentID, len(priceRefs))
	return nil
}
