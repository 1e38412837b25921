// Package reconcile applies billing-provider webhook events to the
// Firestore mirror. Every handler is an idempotent upsert: replaying an
// event produces the same mirror state. Events for one entity may arrive
// out of order and the reconciler does not sequence them; the last applied
// payload wins. That weak ordering is accepted, not remediated.
package reconcile

import (
	"context"

	"firewand/internal/payments"

	"firebase.google.com/go/v4/auth"
)

// ClaimsClient is the slice of the identity provider the reconciler needs
// to maintain derived role claims. *auth.Client satisfies it.
type ClaimsClient interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error
}

// Config names the webhook secret and overridable role claim key.
type Config struct {
	WebhookSecret string
	// ClaimKey is the custom-claim field carrying the derived role.
	// Defaults to "stripeRole".
	ClaimKey string
}

func (c *Config) applyDefaults() {
	if c.ClaimKey == "" {
		c.ClaimKey = "stripeRole"
	}
}

// Reconciler consumes provider events and maintains the mirror. Writes go
// straight to Firestore; reads (identity resolution, document refs) go
// through the payments client so both sides agree on layout.
type Reconciler struct {
	client *payments.Client
	claims ClaimsClient
	api    StripeAPI
	cfg    Config
}

func New(client *payments.Client, claims ClaimsClient, api StripeAPI, cfg Config) *Reconciler {
	cfg.applyDefaults()
	return &Reconciler{client: client, claims: claims, api: api, cfg: cfg}
}
