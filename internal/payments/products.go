package payments

import (
	"context"
	"fmt"

	"firewand/internal/utils"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// ProductsDAO reads the product mirror and the per-product price
// subcollections. The mirror is authored only by the reconciler.
type ProductsDAO struct {
	fs  *firestore.Client
	cfg Config
}

func NewProductsDAO(fs *firestore.Client, cfg Config) *ProductsDAO {
	return &ProductsDAO{fs: fs, cfg: cfg}
}

func (d *ProductsDAO) col() *firestore.CollectionRef {
	return d.fs.Collection(d.cfg.ProductsCollection)
}

// Doc returns the document reference for a product by id.
func (d *ProductsDAO) Doc(id string) *firestore.DocumentRef {
	return d.col().Doc(id)
}

// PriceDoc returns the document reference for a price under its product.
func (d *ProductsDAO) PriceDoc(productID, priceID string) *firestore.DocumentRef {
	return d.col().Doc(productID).Collection("prices").Doc(priceID)
}

func (d *ProductsDAO) Get(ctx context.Context, id string) (*Product, error) {
	doc, err := d.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: product %s: %v", kindOf(err), id, err)
	}
	return decodeProduct(doc)
}

// ListOptions filters a product listing.
type ListOptions struct {
	// ActiveOnly keeps only products the provider still sells.
	ActiveOnly bool
}

func (d *ProductsDAO) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	q := d.col().Query
	if opts.ActiveOnly {
		q = q.Where("active", "==", true)
	}
	it := q.Documents(ctx)
	out := []Product{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list products: %v", kindOf(err), err)
		}
		p, err := decodeProduct(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// Search matches products whose normalized name starts with q. The
// reconciler maintains a name_lower field on every product document for
// this prefix query.
func (d *ProductsDAO) Search(ctx context.Context, q string, limit int) ([]Product, error) {
	q = utils.NormalizeNameLower(q)
	if q == "" {
		return d.List(ctx, ListOptions{ActiveOnly: true})
	}
	hi := q + "\uf8ff"
	it := d.col().
		Where("name_lower", ">=", q).
		Where("name_lower", "<", hi).
		OrderBy("name_lower", firestore.Asc).
		Limit(limit).
		Documents(ctx)

	out := []Product{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: search products: %v", kindOf(err), err)
		}
		p, err := decodeProduct(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (d *ProductsDAO) GetPrice(ctx context.Context, productID, priceID string) (*Price, error) {
	doc, err := d.PriceDoc(productID, priceID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: price %s/%s: %v", kindOf(err), productID, priceID, err)
	}
	return decodePrice(doc)
}

func (d *ProductsDAO) ListPrices(ctx context.Context, productID string, opts ListOptions) ([]Price, error) {
	q := d.col().Doc(productID).Collection("prices").Query
	if opts.ActiveOnly {
		q = q.Where("active", "==", true)
	}
	it := q.Documents(ctx)
	out := []Price{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list prices for %s: %v", kindOf(err), productID, err)
		}
		p, err := decodePrice(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// OnChange registers a live listener over the product collection. The
// first delivery carries the full current snapshot; later deliveries add
// the incremental change list. Stop the returned handle to release the
// provider-side listener.
func (d *ProductsDAO) OnChange(ctx context.Context, opts ListOptions, onUpdate func(Snapshot[Product]), onError func(error)) *Listener {
	q := d.col().Query
	if opts.ActiveOnly {
		q = q.Where("active", "==", true)
	}
	return listen(ctx, q, decodeProduct2, onUpdate, onError)
}

// OnPriceChange registers a live listener over one product's prices.
func (d *ProductsDAO) OnPriceChange(ctx context.Context, productID string, onUpdate func(Snapshot[Price]), onError func(error)) *Listener {
	q := d.col().Doc(productID).Collection("prices").Query
	return listen(ctx, q, decodePrice2, onUpdate, onError)
}

func decodeProduct(doc *firestore.DocumentSnapshot) (*Product, error) {
	var p Product
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("%w: decode product %s: %v", ErrInternal, doc.Ref.ID, err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func decodeProduct2(doc *firestore.DocumentSnapshot) (Product, error) {
	p, err := decodeProduct(doc)
	if err != nil {
		return Product{}, err
	}
	return *p, nil
}

func decodePrice(doc *firestore.DocumentSnapshot) (*Price, error) {
	var p Price
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("%w: decode price %s: %v", ErrInternal, doc.Ref.ID, err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func decodePrice2(doc *firestore.DocumentSnapshot) (Price, error) {
	p, err := decodePrice(doc)
	if err != nil {
		return Price{}, err
	}
	return *p, nil
}
