package payments

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerStopIdempotent(t *testing.T) {
	calls := 0
	done := make(chan struct{})
	close(done)
	l := &Listener{cancel: func() { calls++ }, done: done}

	l.Stop()
	l.Stop()
	l.Stop()
	assert.Equal(t, 1, calls, "repeated Stop must cancel exactly once")
}

func TestOnChangeSnapshots(t *testing.T) {
	fs := testClient(t)
	cfg := testConfig()
	dao := NewSubscriptionsDAO(fs, cfg)
	ctx := context.Background()

	snaps := make(chan Snapshot[Subscription], 4)
	l := dao.OnChange(ctx, "user-1", func(s Snapshot[Subscription]) {
		snaps <- s
	}, func(err error) {
		t.Errorf("listen error: %v", err)
	})
	defer l.Stop()

	// First emission mirrors the empty collection.
	first := waitSnap(t, snaps)
	assert.True(t, first.Empty)
	assert.Zero(t, first.Size)
	assert.Empty(t, first.Changes)

	_, err := fs.Collection(cfg.CustomersCollection).Doc("user-1").
		Collection("subscriptions").Doc("sub_1").Set(ctx, map[string]interface{}{
		"status":  "active",
		"created": time.Now().UTC(),
	})
	require.NoError(t, err)

	second := waitSnap(t, snaps)
	assert.False(t, second.Empty)
	assert.Equal(t, 1, second.Size)
	require.Len(t, second.Changes, 1)
	assert.Equal(t, ChangeAdded, second.Changes[0].Kind)
	assert.Equal(t, "sub_1", second.Changes[0].Entity.ID)
	assert.Equal(t, StatusActive, second.Changes[0].Entity.Status)

	l.Stop()
	l.Stop()
}

func waitSnap(t *testing.T, ch chan Snapshot[Subscription]) Snapshot[Subscription] {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot[Subscription]{}
	}
}

func TestListenStopsOnContextCancel(t *testing.T) {
	fs := testClient(t)
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())

	l := listen(ctx, fs.Collection(cfg.ProductsCollection).Query,
		func(doc *firestore.DocumentSnapshot) (Product, error) {
			return Product{}, nil
		},
		func(Snapshot[Product]) {},
		func(err error) { t.Errorf("cancellation must not surface an error: %v", err) },
	)

	cancel()
	select {
	case <-l.done:
	case <-time.After(10 * time.Second):
		t.Fatal("listener did not shut down after context cancel")
	}
}
