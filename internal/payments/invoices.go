package payments

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// InvoicesDAO reads mirrored invoices. An invoice tied to a subscription
// lives under customers/{uid}/subscriptions/{subID}/invoices; one without
// a subscription lives under customers/{uid}/invoices. Listing spans both
// via a collection-group query scoped to the customer document.
type InvoicesDAO struct {
	fs  *firestore.Client
	cfg Config
}

func NewInvoicesDAO(fs *firestore.Client, cfg Config) *InvoicesDAO {
	return &InvoicesDAO{fs: fs, cfg: cfg}
}

func (d *InvoicesDAO) customerDoc(uid string) *firestore.DocumentRef {
	return d.fs.Collection(d.cfg.CustomersCollection).Doc(uid)
}

// InvoiceListOptions filters an invoice listing.
type InvoiceListOptions struct {
	// SubscriptionID scopes the listing to one subscription's invoices.
	SubscriptionID string
	// Status keeps only invoices whose status is in the set.
	Status []InvoiceStatus
}

func (d *InvoicesDAO) Get(ctx context.Context, uid, invoiceID string) (*Invoice, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrUnauthenticated)
	}

	// Direct customer-level invoice first, then the subscription-scoped
	// group. Exactly one of the two locations holds any given id.
	doc, err := d.customerDoc(uid).Collection("invoices").Doc(invoiceID).Get(ctx)
	if err == nil {
		return decodeInvoice(doc)
	}

	it := d.fs.CollectionGroup("invoices").
		Where("uid", "==", uid).
		Where("id", "==", invoiceID).
		Limit(1).
		Documents(ctx)
	docs, gerr := it.GetAll()
	if gerr != nil {
		return nil, fmt.Errorf("%w: invoice %s: %v", kindOf(gerr), invoiceID, gerr)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
	}
	return decodeInvoice(docs[0])
}

func (d *InvoicesDAO) List(ctx context.Context, uid string, opts InvoiceListOptions) ([]Invoice, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrUnauthenticated)
	}

	q := d.query(uid, opts)
	it := q.Documents(ctx)
	out := []Invoice{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list invoices: %v", kindOf(err), err)
		}
		inv, err := decodeInvoice(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (d *InvoicesDAO) OnChange(ctx context.Context, uid string, opts InvoiceListOptions, onUpdate func(Snapshot[Invoice]), onError func(error)) *Listener {
	return listen(ctx, d.query(uid, opts), decodeInvoice2, onUpdate, onError)
}

func (d *InvoicesDAO) query(uid string, opts InvoiceListOptions) firestore.Query {
	var q firestore.Query
	if opts.SubscriptionID != "" {
		q = d.customerDoc(uid).Collection("subscriptions").Doc(opts.SubscriptionID).Collection("invoices").Query
	} else {
		// Reconciler stamps a uid field on every invoice so the group
		// query can span both storage locations.
		q = d.fs.CollectionGroup("invoices").Where("uid", "==", uid)
	}
	if len(opts.Status) > 0 {
		ss := make([]string, len(opts.Status))
		for i, s := range opts.Status {
			ss[i] = string(s)
		}
		q = q.Where("status", "in", ss)
	}
	return q
}

// Set rejects all writes: the invoice mirror is derived, never authored
// by readers.
func (d *InvoicesDAO) Set(context.Context, string, Invoice) error {
	return fmt.Errorf("%w: the invoice mirror is read-only", ErrUnimplemented)
}

func decodeInvoice(doc *firestore.DocumentSnapshot) (*Invoice, error) {
	var inv Invoice
	if err := doc.DataTo(&inv); err != nil {
		return nil, fmt.Errorf("%w: decode invoice %s: %v", ErrInternal, doc.Ref.ID, err)
	}
	inv.ID = doc.Ref.ID
	return &inv, nil
}

func decodeInvoice2(doc *firestore.DocumentSnapshot) (Invoice, error) {
	inv, err := decodeInvoice(doc)
	if err != nil {
		return Invoice{}, err
	}
	return *inv, nil
}
