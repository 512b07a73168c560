// Package docstore is the document database boundary: collections of
// independently keyed documents with field queries, live query subscriptions
// and atomic per-document field transforms.
package docstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("document not found")

type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
	OpIn            Op = "in"
	OpGreaterEqual  Op = ">="
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field     string
	Direction Direction
}

// Query selects documents of one collection, or of every collection with the
// same id when Group is set.
type Query struct {
	Collection string
	Group      bool
	Filters    []Filter
	Orders     []Order
	Limit      int
}

func From(collection string) Query {
	return Query{Collection: collection}
}

func CollectionGroup(collectionID string) Query {
	return Query{Collection: collectionID, Group: true}
}

func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field, Direction: dir})
	return q
}

func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

type Document struct {
	Path string
	ID   string
	Data map[string]any
}

type Snapshot struct {
	Docs []Document
	Err  error
}

// Update sets one field. Path may be dotted to address a nested map entry.
type Update struct {
	Path  string
	Value any
}

type transformKind int

const (
	arrayUnion transformKind = iota
	arrayRemove
	increment
	deleteField
	serverTimestamp
)

// Transform is a server-side field operation applied atomically to a single document.
type Transform struct {
	kind   transformKind
	values []any
	delta  int64
}

func ArrayUnion(values ...any) Transform {
	return Transform{kind: arrayUnion, values: values}
}

func ArrayRemove(values ...any) Transform {
	return Transform{kind: arrayRemove, values: values}
}

func Increment(delta int64) Transform {
	return Transform{kind: increment, delta: delta}
}

var (
	DeleteField     = Transform{kind: deleteField}
	ServerTimestamp = Transform{kind: serverTimestamp}
)

type Store interface {
	Get(ctx context.Context, path string) (Document, error)
	Find(ctx context.Context, q Query) ([]Document, error)
	Watch(ctx context.Context, q Query) *Subscription
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, path string, data map[string]any, merge bool) error
	Update(ctx context.Context, path string, updates []Update) error
	Delete(ctx context.Context, path string) error
}

// Subscription delivers query snapshots until Stop is called. Snapshots are
// coalesced: a consumer that falls behind only sees the latest state.
type Subscription struct {
	ch     chan Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

func newSubscription(cancel context.CancelFunc) *Subscription {
	return &Subscription{
		ch:     make(chan Snapshot, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

func (s *Subscription) Stop() {
	s.cancel()
	<-s.done
}

// publish replaces any undelivered snapshot with snap.
func (s *Subscription) publish(snap Snapshot) {
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func Doc(collection, id string) string {
	return collection + "/" + id
}

// Sub returns the path of a subcollection under the document at docPath.
func Sub(docPath, collectionID string) string {
	return docPath + "/" + collectionID
}

// splitPath returns the collection path and id of a document path.
func splitPath(path string) (string, string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// collectionID returns the last segment of a collection path.
func collectionID(collection string) string {
	_, id := splitPath(collection)
	return id
}

// Field readers used when decoding Document.Data into models.

func String(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func Bool(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func Int(data map[string]any, key string) int64 {
	switch v := data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func Time(data map[string]any, key string) time.Time {
	t, _ := data[key].(time.Time)
	return t
}

func Strings(data map[string]any, key string) []string {
	out := []string{}
	switch v := data[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	}
	return out
}

func Map(data map[string]any, key string) map[string]any {
	m, _ := data[key].(map[string]any)
	return m
}

func Maps(data map[string]any, key string) []map[string]any {
	var out []map[string]any
	if items, ok := data[key].([]any); ok {
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}
