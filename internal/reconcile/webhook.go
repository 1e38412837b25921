package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"firewand/internal/payments"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// HandleWebhook verifies and dispatches incoming provider events. A
// permanent failure (unresolvable identity, malformed payload) is logged
// and acknowledged so the provider stops retrying; anything else returns
// 5xx so the provider redelivers.
func (r *Reconciler) HandleWebhook(w http.ResponseWriter, req *http.Request) {
	const maxBodyBytes = int64(65536)
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		log.Printf("webhook: error reading request body: %v", err)
		http.Error(w, "error reading request body", http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, req.Header.Get("Stripe-Signature"), r.cfg.WebhookSecret)
	if err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	log.Printf("webhook: received event type=%s id=%s", event.Type, event.ID)

	if err := r.Dispatch(req.Context(), event); err != nil {
		if payments.IsNotFound(err) || payments.IsInvalidArgument(err) {
			// Redelivery cannot fix these; acknowledge and move on.
			log.Printf("webhook: dropping event %s: %v", event.ID, err)
		} else {
			log.Printf("webhook: event %s failed: %v", event.ID, err)
			http.Error(w, "event processing failed", http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received": true}`))
}

// Dispatch routes one verified event to its handler.
func (r *Reconciler) Dispatch(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "product.created", "product.updated":
		var p stripe.Product
		if err := unmarshalEvent(event, &p); err != nil {
			return err
		}
		return r.UpsertProduct(ctx, &p)

	case "product.deleted":
		var p stripe.Product
		if err := unmarshalEvent(event, &p); err != nil {
			return err
		}
		return r.DeleteProduct(ctx, p.ID)

	case "price.created", "price.updated":
		var p stripe.Price
		if err := unmarshalEvent(event, &p); err != nil {
			return err
		}
		return r.UpsertPrice(ctx, &p)

	case "price.deleted":
		var p stripe.Price
		if err := unmarshalEvent(event, &p); err != nil {
			return err
		}
		return r.DeletePrice(ctx, &p)

	case "tax_rate.created", "tax_rate.updated":
		var t stripe.TaxRate
		if err := unmarshalEvent(event, &t); err != nil {
			return err
		}
		return r.UpsertTaxRate(ctx, &t)

	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := unmarshalEvent(event, &sub); err != nil {
			return err
		}
		if sub.Customer == nil {
			return fmt.Errorf("%w: subscription %s carries no customer", payments.ErrInvalidArgument, sub.ID)
		}
		return r.SubscriptionChanged(ctx, sub.ID, sub.Customer.ID)

	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := unmarshalEvent(event, &sess); err != nil {
			return err
		}
		return r.CheckoutCompleted(ctx, &sess)

	case "invoice.finalized",
		"invoice.paid",
		"invoice.payment_succeeded",
		"invoice.payment_failed",
		"invoice.marked_uncollectible",
		"invoice.voided":
		var inv stripe.Invoice
		if err := unmarshalEvent(event, &inv); err != nil {
			return err
		}
		refs, err := NormalizeLineRefs(event.Data.Raw)
		if err != nil {
			return err
		}
		return r.RecordInvoice(ctx, &inv, refs)

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := unmarshalEvent(event, &pi); err != nil {
			return err
		}
		return r.RecordPayment(ctx, &pi)

	default:
		log.Printf("webhook: unhandled event type: %s", event.Type)
		return nil
	}
}

func unmarshalEvent(event stripe.Event, dst interface{}) error {
	if err := json.Unmarshal(event.Data.Raw, dst); err != nil {
		return fmt.Errorf("%w: parse %s payload: %v", payments.ErrInvalidArgument, event.Type, err)
	}
	return nil
}
