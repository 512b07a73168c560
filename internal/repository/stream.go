package repository

import (
	"context"

	"heronnest/internal/docstore"
)

// Stream decodes the snapshots of a live query into models.
type Stream[T any] struct {
	sub    *docstore.Subscription
	decode func(docstore.Document) T
}

func newStream[T any](sub *docstore.Subscription, decode func(docstore.Document) T) *Stream[T] {
	return &Stream[T]{sub: sub, decode: decode}
}

// Next blocks until the next snapshot arrives or ctx is done.
func (s *Stream[T]) Next(ctx context.Context) ([]T, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case snap := <-s.sub.C():
		if snap.Err != nil {
			return nil, snap.Err
		}
		return decodeAll(snap.Docs, s.decode), nil
	}
}

func (s *Stream[T]) Stop() {
	s.sub.Stop()
}

func decodeAll[T any](docs []docstore.Document, decode func(docstore.Document) T) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decode(doc))
	}
	return out
}
