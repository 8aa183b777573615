// Package bag holds the values a request view has explicitly received, keyed
// by field name, in the order fields are declared.
package bag

// Bag is an ordered field-name to value map.
type Bag struct {
	keys   []string
	values map[string]any
}

func New() *Bag {
	return &Bag{values: make(map[string]any)}
}

// Set stores value under key, keeping the position of an existing key.
func (b *Bag) Set(key string, value any) *Bag {
	if b.values == nil {
		b.values = make(map[string]any)
	}
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
	return b
}

func (b *Bag) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *Bag) Has(key string) bool {
	_, ok := b.values[key]
	return ok
}

func (b *Bag) Len() int { return len(b.keys) }

// Keys returns the keys in insertion order.
func (b *Bag) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Map returns a copy of the contents.
func (b *Bag) Map() map[string]any {
	m := make(map[string]any, len(b.values))
	for k, v := range b.values {
		m[k] = v
	}
	return m
}

// Value returns the value under key when it is present and of type T.
func Value[T any](b *Bag, key string) (T, bool) {
	var zero T
	v, ok := b.values[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
