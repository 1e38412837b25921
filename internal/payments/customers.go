package payments

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// CustomersDAO reads the customer mirror and resolves identities between
// application uids and billing-provider customer ids.
type CustomersDAO struct {
	fs  *firestore.Client
	cfg Config
}

func NewCustomersDAO(fs *firestore.Client, cfg Config) *CustomersDAO {
	return &CustomersDAO{fs: fs, cfg: cfg}
}

func (d *CustomersDAO) col() *firestore.CollectionRef {
	return d.fs.Collection(d.cfg.CustomersCollection)
}

// Doc returns the document reference for a customer by uid.
func (d *CustomersDAO) Doc(uid string) *firestore.DocumentRef {
	return d.col().Doc(uid)
}

func (d *CustomersDAO) Get(ctx context.Context, uid string) (*Customer, error) {
	doc, err := d.col().Doc(uid).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: customer %s: %v", kindOf(err), uid, err)
	}
	var c Customer
	if err := doc.DataTo(&c); err != nil {
		return nil, fmt.Errorf("%w: decode customer %s: %v", ErrInternal, uid, err)
	}
	c.UID = doc.Ref.ID
	return &c, nil
}

// UIDForCustomer maps a billing-provider customer id back to the owning
// uid. The mapping must be one-to-one: zero matches and ambiguous matches
// both fail with ErrNotFound, and callers must not proceed on failure.
func (d *CustomersDAO) UIDForCustomer(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", fmt.Errorf("%w: customer id is required", ErrInvalidArgument)
	}

	it := d.col().Where("stripeId", "==", customerID).Limit(2).Documents(ctx)
	docs, err := it.GetAll()
	if err != nil {
		return "", fmt.Errorf("%w: uid lookup for %s: %v", kindOf(err), customerID, err)
	}
	if len(docs) != 1 {
		return "", fmt.Errorf("%w: expected exactly one customer for %s, got %d", ErrNotFound, customerID, len(docs))
	}
	return docs[0].Ref.ID, nil
}

// List returns all mirrored customers ordered by creation time.
func (d *CustomersDAO) List(ctx context.Context) ([]Customer, error) {
	it := d.col().OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	out := []Customer{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list customers: %v", kindOf(err), err)
		}
		var c Customer
		if err := doc.DataTo(&c); err != nil {
			return nil, fmt.Errorf("%w: decode customer %s: %v", ErrInternal, doc.Ref.ID, err)
		}
		c.UID = doc.Ref.ID
		out = append(out, c)
	}
	return out, nil
}
