package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
)

// ChangeKind labels one delta within a snapshot emission.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one incremental mutation observed since the previous snapshot.
type Change[T any] struct {
	Kind     ChangeKind `json:"kind"`
	Entity   T          `json:"entity"`
	OldIndex int        `json:"oldIndex"`
	NewIndex int        `json:"newIndex"`
}

// Snapshot is a point-in-time listing of a mirrored collection paired with
// the deltas since the prior emission. The first emission carries the full
// current state; for an empty collection it has Empty=true and no changes.
type Snapshot[T any] struct {
	Items    []T         `json:"items"`
	Changes  []Change[T] `json:"changes"`
	Size     int         `json:"size"`
	Empty    bool        `json:"empty"`
	ReadTime time.Time   `json:"readTime"`
}

// Listener is the cancellation handle returned by every OnChange
// registration. Stop unregisters the underlying provider subscription and
// is safe to call any number of times.
type Listener struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func (l *Listener) Stop() {
	l.once.Do(func() {
		l.cancel()
		<-l.done
	})
}

// listen drives a live Firestore query subscription and fans snapshots out
// to onUpdate. A transport failure is delivered to onError (when set) and
// terminates the listener; the snapshot iterator is unrecoverable at that
// point, so the caller must register a new listener to resume.
func listen[T any](
	ctx context.Context,
	q firestore.Query,
	decode func(*firestore.DocumentSnapshot) (T, error),
	onUpdate func(Snapshot[T]),
	onError func(error),
) *Listener {
	ctx, cancel := context.WithCancel(ctx)
	l := &Listener{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(l.done)
		it := q.Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if onError != nil {
					onError(fmt.Errorf("%w: listen: %v", kindOf(err), err))
				}
				return
			}

			snap, err := buildSnapshot(qs, decode)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onUpdate(snap)
		}
	}()

	return l
}

func buildSnapshot[T any](qs *firestore.QuerySnapshot, decode func(*firestore.DocumentSnapshot) (T, error)) (Snapshot[T], error) {
	docs, err := qs.Documents.GetAll()
	if err != nil {
		return Snapshot[T]{}, fmt.Errorf("%w: snapshot read: %v", kindOf(err), err)
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := decode(doc)
		if err != nil {
			return Snapshot[T]{}, err
		}
		items = append(items, v)
	}

	changes := make([]Change[T], 0, len(qs.Changes))
	for _, ch := range qs.Changes {
		v, err := decode(ch.Doc)
		if err != nil {
			return Snapshot[T]{}, err
		}
		changes = append(changes, Change[T]{
			Kind:     changeKind(ch.Kind),
			Entity:   v,
			OldIndex: ch.OldIndex,
			NewIndex: ch.NewIndex,
		})
	}

	return Snapshot[T]{
		Items:    items,
		Changes:  changes,
		Size:     len(items),
		Empty:    len(items) == 0,
		ReadTime: qs.ReadTime,
	}, nil
}

func changeKind(k firestore.DocumentChangeKind) ChangeKind {
	switch k {
	case firestore.DocumentAdded:
		return ChangeAdded
	case firestore.DocumentModified:
		return ChangeModified
	default:
		return ChangeRemoved
	}
}
