package lft

// named is the capability every merged block shares.
type named interface {
	Name() string
}

// namedList is an ordered collection with name-based identity and
// structural-equality-on-collision merging. One implementation serves the
// delta, disturbance and performance collections alike.
type namedList[T named] struct {
	items []T
}

// add returns a new list extended by item. A name collision with a
// structurally equal entry is idempotent; with a different entry it fails.
func (l namedList[T]) add(item T, equal func(a, b T) bool) (namedList[T], error) {
	for _, existing := range l.items {
		if existing.Name() == item.Name() {
			if equal(existing, item) {
				return l, nil
			}
			return namedList[T]{}, incompatibleErr(item.Name(),
				"already present with a different structural definition")
		}
	}
	out := namedList[T]{items: make([]T, 0, len(l.items)+1)}
	out.items = append(out.items, l.items...)
	out.items = append(out.items, item)
	return out, nil
}

// byName returns the entry with the given name, if present.
func (l namedList[T]) byName(name string) (T, bool) {
	for _, item := range l.items {
		if item.Name() == name {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// all returns the entries in insertion order; callers must not mutate.
func (l namedList[T]) all() []T {
	return l.items
}

// mapAll returns a new list with f applied to every entry in order.
func mapAll[T named](l namedList[T], f func(T) (T, error)) (namedList[T], error) {
	out := namedList[T]{items: make([]T, len(l.items))}
	for i, item := range l.items {
		mapped, err := f(item)
		if err != nil {
			return namedList[T]{}, err
		}
		out.items[i] = mapped
	}
	return out, nil
}
