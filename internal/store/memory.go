package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory 内存版文档存储（测试用）
// Implements the same contract as the Mongo adapter: per-document atomic
// operations, unique index enforcement, a subset of the filter operators the
// registry actually uses ($gte, $lte, $ne, null matching, array contains)
// and atomic $inc through FindOneAndUpdate.
type Memory struct {
	mu    sync.Mutex
	colls map[string]*memoryCollection
}

func NewMemory() *Memory {
	return &Memory{colls: make(map[string]*memoryCollection)}
}

func (m *Memory) Collection(name string) Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.colls[name]
	if !ok {
		c = &memoryCollection{}
		m.colls[name] = c
	}
	return c
}

type memoryCollection struct {
	mu     sync.Mutex
	docs   []bson.M
	unique []bson.D
}

// canonical round-trips a value through bson so filters and stored documents
// compare in the same representation the Mongo driver would produce.
func canonical(v any) any {
	raw, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return v
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return v
	}
	return m["v"]
}

func canonicalDoc(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	}
	return v
}

func valuesEqual(a, b any) bool {
	a = normalize(canonical(a))
	b = normalize(canonical(b))
	if reflect.DeepEqual(a, b) {
		return true
	}
	// Numeric cross-type equality (int64 vs float64).
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	return aok && bok && af == bf
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

// compareValues returns -1/0/1 for sortable value kinds.
func compareValues(a, b any) int {
	a = normalize(canonical(a))
	b = normalize(canonical(b))
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			default:
				return 0
			}
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	return 0
}

func fieldMatches(got any, want any, present bool) bool {
	switch w := want.(type) {
	case bson.M:
		for op, v := range w {
			switch op {
			case "$gte":
				if !present || compareValues(got, v) < 0 {
					return false
				}
			case "$lte":
				if !present || compareValues(got, v) > 0 {
					return false
				}
			case "$ne":
				if present && valuesEqual(got, v) {
					return false
				}
			default:
				return false
			}
		}
		return true
	case nil:
		// Mongo null matches both explicit null and missing fields.
		return !present || got == nil
	}
	if !present {
		return false
	}
	// Array membership semantics.
	if arr, ok := got.(primitive.A); ok {
		for _, item := range arr {
			if valuesEqual(item, want) {
				return true
			}
		}
		return false
	}
	return valuesEqual(got, want)
}

func matches(doc bson.M, filter bson.M) bool {
	for key, want := range filter {
		got, present := doc[key]
		if !fieldMatches(got, want, present) {
			return false
		}
	}
	return true
}

func (c *memoryCollection) CreateIndex(_ context.Context, keys bson.D, unique bool) error {
	if !unique {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unique = append(c.unique, keys)
	return nil
}

// violatesUnique checks candidate against all documents except the one at
// skip (-1 for inserts).
func (c *memoryCollection) violatesUnique(candidate bson.M, skip int) bool {
	for _, keys := range c.unique {
		for i, doc := range c.docs {
			if i == skip {
				continue
			}
			same := true
			for _, key := range keys {
				if !valuesEqual(doc[key.Key], candidate[key.Key]) {
					same = false
					break
				}
			}
			if same {
				return true
			}
		}
	}
	return false
}

func (c *memoryCollection) findIndexes(filter bson.M) []int {
	var idx []int
	for i, doc := range c.docs {
		if matches(doc, filter) {
			idx = append(idx, i)
		}
	}
	return idx
}

func decodeDoc(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func decodeAll(docs []bson.M, out any) error {
	outv := reflect.ValueOf(out)
	if outv.Kind() != reflect.Ptr || outv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("out must be a pointer to a slice, got %T", out)
	}
	slicev := outv.Elem()
	elemT := slicev.Type().Elem()
	result := reflect.MakeSlice(slicev.Type(), 0, len(docs))
	for _, doc := range docs {
		elem := reflect.New(elemT)
		if err := decodeDoc(doc, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	slicev.Set(result)
	return nil
}

func (c *memoryCollection) FindOne(_ context.Context, filter bson.M, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range c.docs {
		if matches(doc, filter) {
			return decodeDoc(doc, out)
		}
	}
	return ErrNotFound
}

func (c *memoryCollection) Find(_ context.Context, filter bson.M, sortSpec bson.D, skip, limit int64, out any) error {
	c.mu.Lock()
	matched := make([]bson.M, 0)
	for _, doc := range c.docs {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	c.mu.Unlock()

	if len(sortSpec) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, field := range sortSpec {
				dir := 1
				if d, ok := field.Value.(int); ok && d < 0 {
					dir = -1
				}
				cmp := compareValues(matched[i][field.Key], matched[j][field.Key]) * dir
				if cmp != 0 {
					return cmp < 0
				}
			}
			return false
		})
	}

	if skip > 0 {
		if skip >= int64(len(matched)) {
			matched = nil
		} else {
			matched = matched[skip:]
		}
	}
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return decodeAll(matched, out)
}

func (c *memoryCollection) Count(_ context.Context, filter bson.M) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.findIndexes(filter))), nil
}

func (c *memoryCollection) InsertOne(_ context.Context, doc any) error {
	candidate, err := canonicalDoc(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.violatesUnique(candidate, -1) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, candidate["token"])
	}
	c.docs = append(c.docs, candidate)
	return nil
}

func (c *memoryCollection) ReplaceOne(_ context.Context, filter bson.M, doc any) (int64, error) {
	candidate, err := canonicalDoc(doc)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.findIndexes(filter)
	if len(idx) == 0 {
		return 0, nil
	}
	if c.violatesUnique(candidate, idx[0]) {
		return 0, fmt.Errorf("%w: %v", ErrDuplicateKey, candidate["token"])
	}
	c.docs[idx[0]] = candidate
	return 1, nil
}

func (c *memoryCollection) FindOneAndUpdate(_ context.Context, filter bson.M, update bson.M, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.findIndexes(filter)
	if len(idx) == 0 {
		return ErrNotFound
	}
	doc := c.docs[idx[0]]
	for op, spec := range update {
		fields, ok := spec.(bson.M)
		if !ok {
			return fmt.Errorf("unsupported update spec %T", spec)
		}
		switch op {
		case "$inc":
			for field, delta := range fields {
				cur, _ := asFloat(normalize(canonical(doc[field])))
				d, _ := asFloat(normalize(canonical(delta)))
				doc[field] = int64(cur + d)
			}
		case "$set":
			for field, v := range fields {
				doc[field] = canonical(v)
			}
		default:
			return fmt.Errorf("unsupported update operator %q", op)
		}
	}
	return decodeDoc(doc, out)
}

func (c *memoryCollection) DeleteOne(_ context.Context, filter bson.M) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.findIndexes(filter)
	if len(idx) == 0 {
		return 0, nil
	}
	c.docs = append(c.docs[:idx[0]], c.docs[idx[0]+1:]...)
	return 1, nil
}

func (c *memoryCollection) DeleteMany(_ context.Context, filter bson.M) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]bson.M, 0, len(c.docs))
	removed := int64(0)
	for _, doc := range c.docs {
		if matches(doc, filter) {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return removed, nil
}
