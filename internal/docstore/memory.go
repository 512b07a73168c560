package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. It honours the same query, transform and
// subscription contract as Firestore and backs tests and local runs without a
// Firestore project.
type Memory struct {
	mu       sync.Mutex
	docs     map[string]map[string]any
	watchers map[int]*memoryWatcher
	nextID   int
	now      func() time.Time

	// failures, keyed by operation and path, let tests inject backend errors.
	failures map[string]error
}

type memoryWatcher struct {
	query Query
	sub   *Subscription
	last  []Document
}

func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]map[string]any),
		watchers: make(map[int]*memoryWatcher),
		now:      time.Now,
		failures: make(map[string]error),
	}
}

// SetClock replaces the time source used for ServerTimestamp.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailOn makes the named operation ("get", "find", "create", "set", "update",
// "delete") fail with err for target, which is a document path, or the
// collection for find and create. A nil err clears the failure.
func (m *Memory) FailOn(op, target string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := op + ":" + target
	if err == nil {
		delete(m.failures, key)
		return
	}
	m.failures[key] = err
}

func (m *Memory) failure(op, target string) error {
	return m.failures[op+":"+target]
}

func (m *Memory) Get(ctx context.Context, path string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("get", path); err != nil {
		return Document{}, err
	}

	data, ok := m.docs[path]
	if !ok {
		return Document{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return m.document(path, data), nil
}

func (m *Memory) Find(ctx context.Context, q Query) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("find", q.Collection); err != nil {
		return nil, err
	}
	return m.run(q), nil
}

func (m *Memory) Watch(ctx context.Context, q Query) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	var once sync.Once
	sub := newSubscription(func() {
		once.Do(cancel)
	})
	w := &memoryWatcher{query: q, sub: sub}
	w.last = m.run(q)
	sub.publish(Snapshot{Docs: w.last})
	m.watchers[id] = w
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
		close(sub.done)
	}()

	return sub
}

func (m *Memory) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("create", collection); err != nil {
		return "", err
	}

	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:20]
	m.docs[Doc(collection, id)] = m.resolve(data)
	m.notify()
	return id, nil
}

func (m *Memory) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("set", path); err != nil {
		return err
	}

	resolved := m.resolve(data)
	existing, ok := m.docs[path]
	if merge && ok {
		mergeInto(existing, resolved)
	} else {
		m.docs[path] = resolved
	}
	m.notify()
	return nil
}

func (m *Memory) Update(ctx context.Context, path string, updates []Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("update", path); err != nil {
		return err
	}

	data, ok := m.docs[path]
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	for _, u := range updates {
		m.apply(data, strings.Split(u.Path, "."), u.Value)
	}
	m.notify()
	return nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("delete", path); err != nil {
		return err
	}

	if _, ok := m.docs[path]; ok {
		delete(m.docs, path)
		m.notify()
	}
	return nil
}

func (m *Memory) document(path string, data map[string]any) Document {
	_, id := splitPath(path)
	return Document{Path: path, ID: id, Data: normalize(data).(map[string]any)}
}

func (m *Memory) run(q Query) []Document {
	var out []Document
	for path, data := range m.docs {
		parent, _ := splitPath(path)
		if q.Group {
			if collectionID(parent) != q.Collection {
				continue
			}
		} else if parent != q.Collection {
			continue
		}
		if !matches(data, q.Filters) || !hasFields(data, q.Orders) {
			continue
		}
		out = append(out, m.document(path, data))
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range q.Orders {
			c := compare(lookup(out[i].Data, o.Field), lookup(out[j].Data, o.Field))
			if c == 0 {
				continue
			}
			if o.Direction == Desc {
				return c > 0
			}
			return c < 0
		}
		return out[i].Path < out[j].Path
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// notify re-runs every watcher's query and publishes when its result changed.
// Callers hold m.mu.
func (m *Memory) notify() {
	for _, w := range m.watchers {
		docs := m.run(w.query)
		if reflect.DeepEqual(docs, w.last) {
			continue
		}
		w.last = docs
		w.sub.publish(Snapshot{Docs: docs})
	}
}

// resolve normalises data and replaces transforms with their effect on an
// empty document.
func (m *Memory) resolve(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		m.apply(out, strings.Split(k, "."), v)
	}
	return out
}

func (m *Memory) apply(data map[string]any, path []string, value any) {
	for len(path) > 1 {
		next, ok := data[path[0]].(map[string]any)
		if !ok {
			next = make(map[string]any)
			data[path[0]] = next
		}
		data = next
		path = path[1:]
	}
	key := path[0]

	t, ok := value.(Transform)
	if !ok {
		data[key] = normalize(value)
		return
	}

	switch t.kind {
	case deleteField:
		delete(data, key)
	case serverTimestamp:
		data[key] = m.now()
	case increment:
		data[key] = Int(data, key) + t.delta
	case arrayUnion:
		current, _ := data[key].([]any)
		merged := append([]any{}, current...)
		for _, v := range t.values {
			v = normalize(v)
			if !containsValue(merged, v) {
				merged = append(merged, v)
			}
		}
		data[key] = merged
	case arrayRemove:
		current, _ := data[key].([]any)
		kept := []any{}
		for _, item := range current {
			if !containsValue(normalizeAll(t.values), item) {
				kept = append(kept, item)
			}
		}
		data[key] = kept
	}
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeInto(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		value := lookup(data, f.Field)
		switch f.Op {
		case OpEqual:
			if !reflect.DeepEqual(value, normalize(f.Value)) {
				return false
			}
		case OpArrayContains:
			items, ok := value.([]any)
			if !ok || !containsValue(items, normalize(f.Value)) {
				return false
			}
		case OpIn:
			candidates, ok := normalize(f.Value).([]any)
			if !ok || !containsValue(candidates, value) {
				return false
			}
		case OpGreaterEqual:
			if value == nil || compare(value, normalize(f.Value)) < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func hasFields(data map[string]any, orders []Order) bool {
	for _, o := range orders {
		if lookup(data, o.Field) == nil {
			return false
		}
	}
	return true
}

func lookup(data map[string]any, field string) any {
	parts := strings.Split(field, ".")
	var current any = data
	for _, p := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[p]
	}
	return current
}

func compare(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case int64:
		bv, _ := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case bool:
		bv, _ := b.(bool)
		switch {
		case !av && bv:
			return -1
		case av && !bv:
			return 1
		}
	}
	return 0
}

func containsValue(items []any, v any) bool {
	for _, item := range items {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

func normalizeAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = normalize(v)
	}
	return out
}

// normalize converts v into the value shapes Firestore hands back on reads:
// int64, float64, string, bool, time.Time, []any and map[string]any. The
// result never aliases v.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool, int64, float64:
		return x
	case time.Time:
		return x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = normalize(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}
