package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"heronnest/internal/config"
)

type Firestore struct {
	client *firestore.Client
}

func NewFirestore(ctx context.Context, cfg config.Firestore) (*Firestore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" && cfg.EmulatorHost == "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	// The client library picks FIRESTORE_EMULATOR_HOST up from the environment.
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Firestore{client: client}, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Get(ctx context.Context, path string) (Document, error) {
	snap, err := f.client.Doc(path).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return Document{}, fmt.Errorf("failed to get %s: %w", path, err)
	}
	return toDocument(snap), nil
}

func (f *Firestore) Find(ctx context.Context, q Query) ([]Document, error) {
	snaps, err := f.query(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, toDocument(snap))
	}
	return docs, nil
}

func (f *Firestore) Watch(ctx context.Context, q Query) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)
	it := f.query(q).Snapshots(ctx)

	go func() {
		defer close(sub.done)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				sub.publish(Snapshot{Err: fmt.Errorf("watch %s: %w", q.Collection, err)})
				return
			}

			snaps, err := qs.Documents.GetAll()
			if err != nil {
				sub.publish(Snapshot{Err: fmt.Errorf("watch %s: %w", q.Collection, err)})
				continue
			}

			docs := make([]Document, 0, len(snaps))
			for _, snap := range snaps {
				docs = append(docs, toDocument(snap))
			}
			sub.publish(Snapshot{Docs: docs})
		}
	}()

	return sub
}

func (f *Firestore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, toFirestoreMap(data))
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (f *Firestore) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	var opts []firestore.SetOption
	if merge {
		opts = append(opts, firestore.MergeAll)
	}

	if _, err := f.client.Doc(path).Set(ctx, toFirestoreMap(data), opts...); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

func (f *Firestore) Update(ctx context.Context, path string, updates []Update) error {
	fsUpdates := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		fsUpdates = append(fsUpdates, firestore.Update{
			FieldPath: firestore.FieldPath(strings.Split(u.Path, ".")),
			Value:     toFirestore(u.Value),
		})
	}

	if _, err := f.client.Doc(path).Update(ctx, fsUpdates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("failed to update %s: %w", path, err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, path string) error {
	if _, err := f.client.Doc(path).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (f *Firestore) query(q Query) firestore.Query {
	var fq firestore.Query
	if q.Group {
		fq = f.client.CollectionGroup(q.Collection).Query
	} else {
		fq = f.client.Collection(q.Collection).Query
	}

	for _, filter := range q.Filters {
		fq = fq.Where(filter.Field, string(filter.Op), filter.Value)
	}
	for _, order := range q.Orders {
		dir := firestore.Asc
		if order.Direction == Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(order.Field, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func toDocument(snap *firestore.DocumentSnapshot) Document {
	return Document{
		Path: relativePath(snap.Ref),
		ID:   snap.Ref.ID,
		Data: snap.Data(),
	}
}

// relativePath strips the projects/.../documents prefix from a reference.
func relativePath(ref *firestore.DocumentRef) string {
	coll := ref.Parent
	if coll.Parent == nil {
		return coll.ID + "/" + ref.ID
	}
	return relativePath(coll.Parent) + "/" + coll.ID + "/" + ref.ID
}

func toFirestoreMap(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = toFirestore(v)
	}
	return out
}

func toFirestore(v any) any {
	switch x := v.(type) {
	case Transform:
		switch x.kind {
		case arrayUnion:
			return firestore.ArrayUnion(x.values...)
		case arrayRemove:
			return firestore.ArrayRemove(x.values...)
		case increment:
			return firestore.Increment(x.delta)
		case deleteField:
			return firestore.Delete
		case serverTimestamp:
			return firestore.ServerTimestamp
		}
	case map[string]any:
		return toFirestoreMap(x)
	}
	return v
}
