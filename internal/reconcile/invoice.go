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

// RecordInvoice mirrors an invoice event. An invoice tied to a
// subscription is written under that subscription; one without goes
// directly under the customer. Identity resolution failure aborts the
// event before anything is written.
func (r *Reconciler) RecordInvoice(ctx context.Context, inv *stripe.Invoice, refs []LineRef) error {
	if inv.Customer == nil || inv.Customer.ID == "" {
		return fmt.Errorf("%w: invoice %s carries no customer", payments.ErrInvalidArgument, inv.ID)
	}

	uid, err := r.client.Customers().UIDForCustomer(ctx, inv.Customer.ID)
	if err != nil {
		return fmt.Errorf("invoice %s: %w", inv.ID, err)
	}

	customerDoc := r.client.Customers().Doc(uid)
	var ref *firestore.DocumentRef
	subscriptionID := ""
	if inv.Subscription != nil && inv.Subscription.ID != "" {
		subscriptionID = inv.Subscription.ID
		ref = customerDoc.Collection("subscriptions").Doc(subscriptionID).Collection("invoices").Doc(inv.ID)
	} else {
		ref = customerDoc.Collection("invoices").Doc(inv.ID)
	}

	products := r.client.Products()
	priceRefs := []*firestore.DocumentRef{}
	for _, lr := range refs {
		if lr.ProductID == "" || lr.PriceID == "" {
			continue
		}
		priceRefs = append(priceRefs, products.PriceDoc(lr.ProductID, lr.PriceID))
	}

	data := map[string]interface{}{
		"id":                 inv.ID,
		"uid":                uid,
		"status":             string(inv.Status),
		"subscription":       subscriptionID,
		"amount_due":         inv.AmountDue,
		"amount_paid":        inv.AmountPaid,
		"amount_remaining":   inv.AmountRemaining,
		"subtotal":           inv.Subtotal,
		"tax":                inv.Tax,
		"total":              inv.Total,
		"currency":           string(inv.Currency),
		"prices":             priceRefs,
		"hosted_invoice_url": inv.HostedInvoiceURL,
		"invoice_pdf":        inv.InvoicePDF,
		"created":            time.Unix(inv.Created, 0).UTC(),
	}
	if _, err := ref.Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("write invoice %s: %w", inv.ID, err)
	}
	log.Printf("reconcile: invoice recorded id=%s uid=%s status=%s subscription=%q", inv.ID, uid, inv.Status, subscriptionID)
	return nil
}
