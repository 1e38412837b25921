package payments

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// SubscriptionsDAO reads the per-customer subscription mirror. The mirror
// is derived from provider webhooks; writes through the DAO are rejected.
type SubscriptionsDAO struct {
	fs  *firestore.Client
	cfg Config
}

func NewSubscriptionsDAO(fs *firestore.Client, cfg Config) *SubscriptionsDAO {
	return &SubscriptionsDAO{fs: fs, cfg: cfg}
}

func (d *SubscriptionsDAO) col(uid string) *firestore.CollectionRef {
	return d.fs.Collection(d.cfg.CustomersCollection).Doc(uid).Collection("subscriptions")
}

func (d *SubscriptionsDAO) Get(ctx context.Context, uid, subscriptionID string) (*Subscription, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrUnauthenticated)
	}
	doc, err := d.col(uid).Doc(subscriptionID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription %s: %v", kindOf(err), subscriptionID, err)
	}
	return decodeSubscription(doc)
}

// SubscriptionListOptions filters a subscription listing.
type SubscriptionListOptions struct {
	// Status keeps only subscriptions whose status is in the set. Empty
	// means all statuses.
	Status []SubscriptionStatus
}

func (d *SubscriptionsDAO) List(ctx context.Context, uid string, opts SubscriptionListOptions) ([]Subscription, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrUnauthenticated)
	}
	q := d.col(uid).Query
	if len(opts.Status) > 0 {
		q = q.Where("status", "in", statusStrings(opts.Status))
	}
	it := q.Documents(ctx)
	out := []Subscription{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list subscriptions: %v", kindOf(err), err)
		}
		s, err := decodeSubscription(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// Current returns the customer's newest entitled subscription, or
// ErrNotFound when none is trialing or active.
func (d *SubscriptionsDAO) Current(ctx context.Context, uid string) (*Subscription, error) {
	subs, err := d.List(ctx, uid, SubscriptionListOptions{
		Status: []SubscriptionStatus{StatusTrialing, StatusActive},
	})
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: no active subscription for %s", ErrNotFound, uid)
	}
	cur := subs[0]
	for _, s := range subs[1:] {
		if s.Created.After(cur.Created) {
			cur = s
		}
	}
	return &cur, nil
}

func (d *SubscriptionsDAO) OnChange(ctx context.Context, uid string, onUpdate func(Snapshot[Subscription]), onError func(error)) *Listener {
	return listen(ctx, d.col(uid).Query, decodeSubscription2, onUpdate, onError)
}

// Set rejects all writes: the subscription mirror is authored exclusively
// by the webhook reconciler.
func (d *SubscriptionsDAO) Set(context.Context, string, Subscription) error {
	return fmt.Errorf("%w: the subscription mirror is read-only", ErrUnimplemented)
}

func statusStrings(in []SubscriptionStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func decodeSubscription(doc *firestore.DocumentSnapshot) (*Subscription, error) {
	var s Subscription
	if err := doc.DataTo(&s); err != nil {
		return nil, fmt.Errorf("%w: decode subscription %s: %v", ErrInternal, doc.Ref.ID, err)
	}
	s.ID = doc.Ref.ID
	return &s, nil
}

func decodeSubscription2(doc *firestore.DocumentSnapshot) (Subscription, error) {
	s, err := decodeSubscription(doc)
	if err != nil {
		return Subscription{}, err
	}
	return *s, nil
}
