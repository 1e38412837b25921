package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"firewand/internal/payments"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"
	"github.com/stripe/stripe-go/v78"
)

// SubscriptionChanged reconciles one subscription-changed event. The
// sequence is deliberate:
//
//  1. identity resolution — failure aborts the whole event, no partial
//     writes reach the mirror;
//  2. provider retrieval with expanded items, since the event payload
//     lacks the nested product needed for refs and the role label;
//  3. full-overwrite mirror write (stale fields must not survive a status
//     regression) followed by a merge write of the metadata map;
//  4. role-claim sync, skipped without error when the user is deleted;
//  5. billing-detail propagation last — the most expensive, least
//     critical step, so its failure cannot roll back what succeeded.
func (r *Reconciler) SubscriptionChanged(ctx context.Context, subscriptionID, customerID string) error {
	uid, err := r.client.Customers().UIDForCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("subscription %s: %w", subscriptionID, err)
	}

	sub, err := r.api.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
	}

	products := r.client.Products()
	var productRef, priceRef *firestore.DocumentRef
	var role string
	var quantity int64
	priceRefs := []*firestore.DocumentRef{}
	itemRefs := []payments.SubscriptionItemRef{}

	if sub.Items != nil {
		for i, item := range sub.Items.Data {
			if item.Price == nil || item.Price.Product == nil {
				continue
			}
			// The refs are recorded even when the product has not been
			// mirrored yet; they resolve lazily on read.
			pRef := products.Doc(item.Price.Product.ID)
			prRef := products.PriceDoc(item.Price.Product.ID, item.Price.ID)
			priceRefs = append(priceRefs, prRef)
			itemRefs = append(itemRefs, payments.SubscriptionItemRef{Product: pRef, Price: prRef})
			if i == 0 {
				productRef = pRef
				priceRef = prRef
				role = item.Price.Product.Metadata[RoleMetadataKey]
				quantity = item.Quantity
			}
		}
	}

	status := payments.SubscriptionStatus(sub.Status)
	if !status.Valid() {
		return fmt.Errorf("%w: unknown subscription status %q", payments.ErrInvalidArgument, sub.Status)
	}

	ref := r.client.Customers().Doc(uid).Collection("subscriptions").Doc(sub.ID)
	data := map[string]interface{}{
		"status":               string(status),
		"role":                 role,
		"stripeLink":           "https://dashboard.stripe.com/subscriptions/" + sub.ID,
		"quantity":             quantity,
		"product":              productRef,
		"price":                priceRef,
		"prices":               priceRefs,
		"items":                itemRefs,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
		"created":              time.Unix(sub.Created, 0).UTC(),
		"current_period_start": time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		"current_period_end":   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		"ended_at":             tsOrNil(sub.EndedAt),
		"cancel_at":            tsOrNil(sub.CancelAt),
		"canceled_at":          tsOrNil(sub.CanceledAt),
		"trial_start":          tsOrNil(sub.TrialStart),
		"trial_end":            tsOrNil(sub.TrialEnd),
	}
	if _, err := ref.Set(ctx, data); err != nil {
		return fmt.Errorf("write subscription %s: %w", sub.ID, err)
	}
	if _, err := ref.Set(ctx, map[string]interface{}{"metadata": sub.Metadata}, firestore.MergeAll); err != nil {
		return fmt.Errorf("write subscription metadata %s: %w", sub.ID, err)
	}
	log.Printf("reconcile: subscription upserted id=%s uid=%s status=%s", sub.ID, uid, status)

	if err := r.syncRoleClaim(ctx, uid, role, status.Entitled()); err != nil {
		return err
	}

	if sub.DefaultPaymentMethod != nil {
		if err := r.copyBillingDetails(ctx, uid, sub.DefaultPaymentMethod); err != nil {
			return fmt.Errorf("propagate billing details for %s: %w", uid, err)
		}
	}
	return nil
}

// syncRoleClaim sets or clears the derived role claim, gated strictly on
// entitlement. A claim for a different role label is left alone, and a
// deleted user is skipped without failing the reconciliation.
func (r *Reconciler) syncRoleClaim(ctx context.Context, uid, role string, entitled bool) error {
	if role == "" {
		return nil
	}

	user, err := r.claims.GetUser(ctx, uid)
	if err != nil {
		if userGone(err) {
			log.Printf("reconcile: user %s deleted, skipping claim sync", uid)
			return nil
		}
		return fmt.Errorf("get user %s: %w", uid, err)
	}

	claims := map[string]interface{}{}
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	current, _ := claims[r.cfg.ClaimKey].(string)

	if entitled {
		if current == role {
			return nil
		}
		claims[r.cfg.ClaimKey] = role
	} else {
		if current != role {
			return nil
		}
		delete(claims, r.cfg.ClaimKey)
	}

	if err := r.claims.SetCustomUserClaims(ctx, uid, claims); err != nil {
		if userGone(err) {
			log.Printf("reconcile: user %s deleted, skipping claim sync", uid)
			return nil
		}
		return fmt.Errorf("set claims for %s: %w", uid, err)
	}
	log.Printf("reconcile: role claim synced uid=%s role=%s entitled=%v", uid, role, entitled)
	return nil
}

func (r *Reconciler) copyBillingDetails(ctx context.Context, uid string, pm *stripe.PaymentMethod) error {
	bd := pm.BillingDetails
	if bd == nil {
		return nil
	}
	data := map[string]interface{}{}
	if bd.Name != "" {
		data["name"] = bd.Name
	}
	if bd.Email != "" {
		data["email"] = bd.Email
	}
	if bd.Phone != "" {
		data["phone"] = bd.Phone
	}
	if bd.Address != nil {
		data["address"] = map[string]interface{}{
			"line1":       bd.Address.Line1,
			"line2":       bd.Address.Line2,
			"city":        bd.Address.City,
			"state":       bd.Address.State,
			"postal_code": bd.Address.PostalCode,
			"country":     bd.Address.Country,
		}
	}
	if len(data) == 0 {
		return nil
	}
	_, err := r.client.Customers().Doc(uid).Set(ctx, data, firestore.MergeAll)
	return err
}

// userGone matches both the identity provider's user-not-found error and
// the sentinel kind substitute claims clients return.
func userGone(err error) bool {
	return auth.IsUserNotFound(err) || payments.IsNotFound(err)
}

func tsOrNil(unix int64) interface{} {
	if unix == 0 {
		return nil
	}
	return time.Unix(unix, 0).UTC()
}
