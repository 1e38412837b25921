package payments

import (
	"time"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"
)

// Config controls where the mirror lives and how session calls behave.
type Config struct {
	// CustomersCollection is the top-level collection holding customer
	// documents keyed by uid. Defaults to "customers".
	CustomersCollection string
	// ProductsCollection is the top-level collection holding product
	// documents. Defaults to "products".
	ProductsCollection string
	// SessionTimeout bounds checkout/portal session calls. Defaults to 10s.
	SessionTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.CustomersCollection == "" {
		c.CustomersCollection = "customers"
	}
	if c.ProductsCollection == "" {
		c.ProductsCollection = "products"
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 10 * time.Second
	}
}

// Client is the entry point to the mirrored payments data. DAOs are
// constructed lazily and cached in the per-client registry, so two Client
// values never share component state.
type Client struct {
	fs       *firestore.Client
	auth     *auth.Client
	cfg      Config
	registry *Registry
	sessions SessionAPI
}

func NewClient(fs *firestore.Client, authClient *auth.Client, cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		fs:       fs,
		auth:     authClient,
		cfg:      cfg,
		registry: NewRegistry(),
		sessions: stripeSessionAPI{},
	}
}

// SetSessionAPI swaps the provider-facing session transport. Used by tests
// to inject a fake; the zero value talks to Stripe.
func (c *Client) SetSessionAPI(api SessionAPI) { c.sessions = api }

// Registry exposes the component registry, mainly so tests can install
// substitute DAOs.
func (c *Client) Registry() *Registry { return c.registry }

func (c *Client) Customers() *CustomersDAO {
	if v, ok := c.registry.Get(keyCustomers); ok {
		return v.(*CustomersDAO)
	}
	dao := NewCustomersDAO(c.fs, c.cfg)
	c.registry.Set(keyCustomers, dao)
	return dao
}

func (c *Client) Products() *ProductsDAO {
	if v, ok := c.registry.Get(keyProducts); ok {
		return v.(*ProductsDAO)
	}
	dao := NewProductsDAO(c.fs, c.cfg)
	c.registry.Set(keyProducts, dao)
	return dao
}

func (c *Client) Subscriptions() *SubscriptionsDAO {
	if v, ok := c.registry.Get(keySubscriptions); ok {
		return v.(*SubscriptionsDAO)
	}
	dao := NewSubscriptionsDAO(c.fs, c.cfg)
	c.registry.Set(keySubscriptions, dao)
	return dao
}

func (c *Client) Invoices() *InvoicesDAO {
	if v, ok := c.registry.Get(keyInvoices); ok {
		return v.(*InvoicesDAO)
	}
	dao := NewInvoicesDAO(c.fs, c.cfg)
	c.registry.Set(keyInvoices, dao)
	return dao
}

func (c *Client) Payments() *PaymentsDAO {
	if v, ok := c.registry.Get(keyPayments); ok {
		return v.(*PaymentsDAO)
	}
	dao := NewPaymentsDAO(c.fs, c.cfg)
	c.registry.Set(keyPayments, dao)
	return dao
}

func (c *Client) Sessions() *Sessions {
	if v, ok := c.registry.Get(keySessions); ok {
		return v.(*Sessions)
	}
	s := NewSessions(c.fs, c.cfg, c.sessions)
	c.registry.Set(keySessions, s)
	return s
}

// Firestore returns the underlying store client.
func (c *Client) Firestore() *firestore.Client { return c.fs }
