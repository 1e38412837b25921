package payments

import (
	"time"

	"cloud.google.com/go/firestore"
)

// MetadataPrefix is prepended to every provider metadata key when it is
// re-emitted as a top-level document field, so flat equality queries work
// without map indexing ("stripe_metadata_tier" == "gold").
const MetadataPrefix = "stripe_metadata_"

// Customer maps an application uid to its billing-provider customer.
// Exactly one customer document may carry a given StripeID.
type Customer struct {
	UID        string `firestore:"-" json:"uid"`
	StripeID   string `firestore:"stripeId" json:"stripeId"`
	StripeLink string `firestore:"stripeLink" json:"stripeLink"`
	Email      string `firestore:"email,omitempty" json:"email,omitempty"`
	Name       string `firestore:"name,omitempty" json:"name,omitempty"`
	Phone      string `firestore:"phone,omitempty" json:"phone,omitempty"`
}

// Product is a sellable offering mirrored from the billing provider.
type Product struct {
	ID          string            `firestore:"-" json:"id"`
	Active      bool              `firestore:"active" json:"active"`
	Name        string            `firestore:"name" json:"name"`
	Description string            `firestore:"description,omitempty" json:"description,omitempty"`
	Images      []string          `firestore:"images" json:"images"`
	Role        string            `firestore:"role" json:"role,omitempty"`
	Metadata    map[string]string `firestore:"metadata" json:"metadata,omitempty"`
	TaxCode     string            `firestore:"tax_code" json:"taxCode,omitempty"`
}

// PriceRecurring describes the billing cadence of a recurring price.
type PriceRecurring struct {
	Interval        string `firestore:"interval" json:"interval"`
	IntervalCount   int64  `firestore:"interval_count" json:"intervalCount"`
	TrialPeriodDays int64  `firestore:"trial_period_days" json:"trialPeriodDays"`
	UsageType       string `firestore:"usage_type,omitempty" json:"usageType,omitempty"`
}

// PriceTier is one step of a tiered price. Tiers are expanded from the
// provider at reconcile time; webhook payloads omit them.
type PriceTier struct {
	FlatAmount int64 `firestore:"flat_amount" json:"flatAmount"`
	UnitAmount int64 `firestore:"unit_amount" json:"unitAmount"`
	UpTo       int64 `firestore:"up_to" json:"upTo"`
}

// Price lives in a subcollection under its owning Product.
type Price struct {
	ID            string            `firestore:"-" json:"id"`
	ProductID     string            `firestore:"product" json:"productId"`
	Active        bool              `firestore:"active" json:"active"`
	BillingScheme string            `firestore:"billing_scheme" json:"billingScheme"`
	Currency      string            `firestore:"currency" json:"currency"`
	Description   string            `firestore:"description,omitempty" json:"description,omitempty"`
	Type          string            `firestore:"type" json:"type"`
	UnitAmount    int64             `firestore:"unit_amount" json:"unitAmount"`
	Recurring     *PriceRecurring   `firestore:"recurring" json:"recurring,omitempty"`
	Tiers         []PriceTier       `firestore:"tiers" json:"tiers,omitempty"`
	TiersMode     string            `firestore:"tiers_mode,omitempty" json:"tiersMode,omitempty"`
	Metadata      map[string]string `firestore:"metadata" json:"metadata,omitempty"`
}

// SubscriptionStatus is the provider-defined subscription lifecycle state.
type SubscriptionStatus string

const (
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusUnpaid            SubscriptionStatus = "unpaid"
)

// Entitled reports whether the status grants the product's role claim.
// Only trialing and active subscriptions confer entitlement.
func (s SubscriptionStatus) Entitled() bool {
	return s == StatusActive || s == StatusTrialing
}

// Valid reports whether s is one of the known lifecycle states.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusCanceled, StatusIncomplete,
		StatusIncompleteExpired, StatusPastDue, StatusUnpaid:
		return true
	}
	return false
}

// SubscriptionItemRef is one (product, price) pair of a multi-item
// subscription, denormalized for flat querying.
type SubscriptionItemRef struct {
	Product *firestore.DocumentRef `firestore:"product" json:"-"`
	Price   *firestore.DocumentRef `firestore:"price" json:"-"`
}

// Subscription lives in a subcollection under its owning Customer. Product
// and Price are recorded as document references; they are not required to
// dereference successfully at write time.
type Subscription struct {
	ID                 string                   `firestore:"-" json:"id"`
	Status             SubscriptionStatus       `firestore:"status" json:"status"`
	Role               string                   `firestore:"role" json:"role,omitempty"`
	StripeLink         string                   `firestore:"stripeLink" json:"stripeLink"`
	Quantity           int64                    `firestore:"quantity" json:"quantity"`
	Product            *firestore.DocumentRef   `firestore:"product" json:"-"`
	Price              *firestore.DocumentRef   `firestore:"price" json:"-"`
	Prices             []*firestore.DocumentRef `firestore:"prices" json:"-"`
	Items              []SubscriptionItemRef    `firestore:"items" json:"-"`
	CancelAtPeriodEnd  bool                     `firestore:"cancel_at_period_end" json:"cancelAtPeriodEnd"`
	Created            time.Time                `firestore:"created" json:"created"`
	CurrentPeriodStart time.Time                `firestore:"current_period_start" json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time                `firestore:"current_period_end" json:"currentPeriodEnd"`
	EndedAt            *time.Time               `firestore:"ended_at" json:"endedAt,omitempty"`
	CancelAt           *time.Time               `firestore:"cancel_at" json:"cancelAt,omitempty"`
	CanceledAt         *time.Time               `firestore:"canceled_at" json:"canceledAt,omitempty"`
	TrialStart         *time.Time               `firestore:"trial_start" json:"trialStart,omitempty"`
	TrialEnd           *time.Time               `firestore:"trial_end" json:"trialEnd,omitempty"`
	Metadata           map[string]string        `firestore:"metadata" json:"metadata,omitempty"`
}

// InvoiceStatus is the provider-defined invoice state.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceOpen          InvoiceStatus = "open"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceUncollectible InvoiceStatus = "uncollectible"
	InvoiceVoid          InvoiceStatus = "void"
)

// Invoice is stored under its Subscription when tied to one, otherwise
// directly under the Customer. The mirror is derived; invoice DAOs reject
// writes.
type Invoice struct {
	// ID and UID are written into the document so the collection-group
	// query in InvoicesDAO can address invoices across both locations.
	ID               string                   `firestore:"id" json:"id"`
	UID              string                   `firestore:"uid" json:"uid"`
	Status           InvoiceStatus            `firestore:"status" json:"status"`
	SubscriptionID   string                   `firestore:"subscription,omitempty" json:"subscriptionId,omitempty"`
	AmountDue        int64                    `firestore:"amount_due" json:"amountDue"`
	AmountPaid       int64                    `firestore:"amount_paid" json:"amountPaid"`
	AmountRemaining  int64                    `firestore:"amount_remaining" json:"amountRemaining"`
	Subtotal         int64                    `firestore:"subtotal" json:"subtotal"`
	Tax              int64                    `firestore:"tax" json:"tax"`
	Total            int64                    `firestore:"total" json:"total"`
	Currency         string                   `firestore:"currency" json:"currency"`
	Prices           []*firestore.DocumentRef `firestore:"prices" json:"-"`
	HostedInvoiceURL string                   `firestore:"hosted_invoice_url,omitempty" json:"hostedInvoiceUrl,omitempty"`
	InvoicePDF       string                   `firestore:"invoice_pdf,omitempty" json:"invoicePdf,omitempty"`
	Created          time.Time                `firestore:"created" json:"created"`
}

// Payment is a one-time payment stored under the Customer, keyed by the
// provider payment intent id (or the invoice id when no intent exists).
type Payment struct {
	ID             string                   `firestore:"-" json:"id"`
	Status         string                   `firestore:"status" json:"status"`
	Amount         int64                    `firestore:"amount" json:"amount"`
	AmountReceived int64                    `firestore:"amount_received" json:"amountReceived"`
	Currency       string                   `firestore:"currency" json:"currency"`
	InvoiceID      string                   `firestore:"invoice,omitempty" json:"invoiceId,omitempty"`
	Prices         []*firestore.DocumentRef `firestore:"prices" json:"-"`
	Created        time.Time                `firestore:"created" json:"created"`
}

// TaxRate mirrors a provider tax rate under products/tax_rates/tax_rates.
type TaxRate struct {
	ID          string  `firestore:"-" json:"id"`
	Active      bool    `firestore:"active" json:"active"`
	DisplayName string  `firestore:"display_name" json:"displayName"`
	Description string  `firestore:"description,omitempty" json:"description,omitempty"`
	Inclusive   bool    `firestore:"inclusive" json:"inclusive"`
	Percentage  float64 `firestore:"percentage" json:"percentage"`
}
