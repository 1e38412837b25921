package payments

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stripe/stripe-go/v78"
	portalsession "github.com/stripe/stripe-go/v78/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"
)

// SessionAPI is the provider-facing surface used by the session
// initiators. It exists so tests can assert that invalid input never
// reaches the network.
type SessionAPI interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
	NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
}

type stripeSessionAPI struct{}

func (stripeSessionAPI) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return checkoutsession.New(params)
}

func (stripeSessionAPI) NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return portalsession.New(params)
}

func (stripeSessionAPI) NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return customer.New(params)
}

// Sessions creates checkout and billing-portal sessions. These are the
// only operations with a caller-imposed timeout; DAO reads rely on the
// store client's defaults.
type Sessions struct {
	fs      *firestore.Client
	cfg     Config
	api     SessionAPI
	timeout time.Duration
}

func NewSessions(fs *firestore.Client, cfg Config, api SessionAPI) *Sessions {
	return &Sessions{fs: fs, cfg: cfg, api: api, timeout: cfg.SessionTimeout}
}

// CheckoutParams describes a checkout session request.
type CheckoutParams struct {
	// Customer optionally names the provider customer directly; when
	// empty it is resolved (or created) from the caller's uid.
	Customer   string            `json:"customer,omitempty"`
	PriceID    string            `json:"priceId"`
	Quantity   int64             `json:"quantity"`
	SuccessURL string            `json:"successUrl"`
	CancelURL  string            `json:"cancelUrl"`
	Mode       string            `json:"mode"` // "subscription" (default) or "payment"
	TrialDays  int64             `json:"trialDays,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// PortalParams describes a billing-portal session request.
type PortalParams struct {
	// Customer optionally names the provider customer directly; when
	// empty it is resolved from the caller's uid.
	Customer  string `json:"customer,omitempty"`
	ReturnURL string `json:"returnUrl"`
}

// CreateCheckout validates the request, ensures the customer has a
// provider-side counterpart, and opens a checkout session. The returned
// session is the provider's object unmodified, redirect URL included.
func (s *Sessions) CreateCheckout(ctx context.Context, uid string, p CheckoutParams) (*stripe.CheckoutSession, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: a signed-in user is required", ErrUnauthenticated)
	}
	if p.PriceID == "" {
		return nil, fmt.Errorf("%w: priceId is required", ErrInvalidArgument)
	}
	if p.SuccessURL == "" || p.CancelURL == "" {
		return nil, fmt.Errorf("%w: successUrl and cancelUrl are required", ErrInvalidArgument)
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}
	mode := stripe.CheckoutSessionModeSubscription
	if p.Mode == "payment" {
		mode = stripe.CheckoutSessionModePayment
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	customerID := p.Customer
	if customerID == "" {
		var err error
		customerID, err = s.ensureCustomer(ctx, uid)
		if err != nil {
			return nil, err
		}
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(p.Quantity),
			},
		},
	}
	if len(p.Metadata) > 0 {
		params.Metadata = p.Metadata
	}
	if mode == stripe.CheckoutSessionModeSubscription && p.TrialDays > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(p.TrialDays),
		}
	}
	params.Context = ctx

	sess, err := s.api.NewCheckoutSession(params)
	if err != nil {
		return nil, sessionErr(ctx, "create checkout session", err)
	}
	return sess, nil
}

// CreatePortal validates the request and opens a billing-portal session
// for the customer behind uid.
func (s *Sessions) CreatePortal(ctx context.Context, uid string, p PortalParams) (*stripe.BillingPortalSession, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: a signed-in user is required", ErrUnauthenticated)
	}
	if p.ReturnURL == "" {
		return nil, fmt.Errorf("%w: returnUrl is required", ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	customerID := p.Customer
	if customerID == "" {
		doc, err := s.fs.Collection(s.cfg.CustomersCollection).Doc(uid).Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: customer %s: %v", kindOf(err), uid, err)
		}
		customerID, _ = doc.Data()["stripeId"].(string)
		if customerID == "" {
			return nil, fmt.Errorf("%w: no billing account for %s", ErrNotFound, uid)
		}
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(p.ReturnURL),
	}
	params.Context = ctx

	sess, err := s.api.NewPortalSession(params)
	if err != nil {
		return nil, sessionErr(ctx, "create portal session", err)
	}
	return sess, nil
}

// ensureCustomer returns the provider customer id for uid, creating the
// provider customer and recording the mapping when missing. Only a
// definitive miss leads to creation; a failed read must not orphan an
// existing provider customer behind a duplicate.
func (s *Sessions) ensureCustomer(ctx context.Context, uid string) (string, error) {
	ref := s.fs.Collection(s.cfg.CustomersCollection).Doc(uid)
	doc, err := ref.Get(ctx)
	if err != nil && !IsNotFound(kindOf(err)) {
		return "", fmt.Errorf("%w: customer %s: %v", kindOf(err), uid, err)
	}

	var email string
	if err == nil {
		if id, _ := doc.Data()["stripeId"].(string); id != "" {
			return id, nil
		}
		email, _ = doc.Data()["email"].(string)
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{"firebaseUID": uid},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.Context = ctx

	c, err := s.api.NewCustomer(params)
	if err != nil {
		return "", sessionErr(ctx, "create customer", err)
	}

	_, err = ref.Set(ctx, map[string]interface{}{
		"stripeId":   c.ID,
		"stripeLink": "https://dashboard.stripe.com/customers/" + c.ID,
	}, firestore.MergeAll)
	if err != nil {
		log.Printf("sessions: failed to record customer mapping for %s: %v", uid, err)
	}
	return c.ID, nil
}

// sessionErr distinguishes an expired deadline from a provider-returned
// failure; the two surface as different error kinds.
func sessionErr(ctx context.Context, op string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s timed out: %v", ErrDeadlineExceeded, op, err)
	}
	return fmt.Errorf("%w: %s: %v", kindOf(err), op, err)
}
