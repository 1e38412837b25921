package payments

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// PaymentsDAO reads mirrored one-time payments under a customer.
type PaymentsDAO struct {
	fs  *firestore.Client
	cfg Config
}

func NewPaymentsDAO(fs *firestore.Client, cfg Config) *PaymentsDAO {
	return &PaymentsDAO{fs: fs, cfg: cfg}
}

func (d *PaymentsDAO) col(uid string) *firestore.CollectionRef {
	return d.fs.Collection(d.cfg.CustomersCollection).Doc(uid).Collection("payments")
}

func (d *PaymentsDAO) Get(ctx context.Context, uid, paymentID string) (*Payment, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrUnauthenticated)
	}
	doc, err := d.col(uid).Doc(paymentID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: payment %s: %v", kindOf(err), paymentID, err)
	}
	return decodePayment(doc)
}

func (d *PaymentsDAO) List(ctx context.Context, uid string) ([]Payment, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrUnauthenticated)
	}
	it := d.col(uid).OrderBy("created", firestore.Desc).Documents(ctx)
	out := []Payment{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list payments: %v", kindOf(err), err)
		}
		p, err := decodePayment(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (d *PaymentsDAO) OnChange(ctx context.Context, uid string, onUpdate func(Snapshot[Payment]), onError func(error)) *Listener {
	return listen(ctx, d.col(uid).Query, decodePayment2, onUpdate, onError)
}

func decodePayment(doc *firestore.DocumentSnapshot) (*Payment, error) {
	var p Payment
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("%w: decode payment %s: %v", ErrInternal, doc.Ref.ID, err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func decodePayment2(doc *firestore.DocumentSnapshot) (Payment, error) {
	p, err := decodePayment(doc)
	if err != nil {
		return Payment{}, err
	}
	return *p, nil
}
