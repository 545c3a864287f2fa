package types

// Optional holds a related record that may or may not have been resolved.
// Consumers must go through Get, so the absent case is always handled.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a resolved Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was resolved.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether the value was resolved.
func (o Optional[T]) Present() bool { return o.ok }

// OrElse returns the value, or fallback when absent.
func (o Optional[T]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// Lookup returns Some(m[key]) when the key is present.
func Lookup[K comparable, V any](m map[K]V, key K) Optional[V] {
	v, ok := m[key]
	if !ok {
		return None[V]()
	}
	return Some(v)
}
