package handler

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry maps types to the handlers that own them. At most one handler
// is kept per exact type; a later registration silently replaces an earlier
// one.
//
// A strict registry answers exact matches only. A lenient registry falls
// back to a breadth-first walk over the type's supertypes: the pointer
// element and the registered interfaces the type implements, classes
// before interfaces and nearer before farther. The predeclared type of
// the same kind (string for type Status string) is the root of every walk
// and is tried last.
//
// Registration is not goroutine safe; lookups are. Register everything
// before the registry is shared.
type Registry struct {
	handlers   map[reflect.Type]Handler
	order      []reflect.Type
	interfaces []reflect.Type
	lenient    bool

	// resolved caches lenient lookups; it is reset on every registration.
	resolved sync.Map // map[reflect.Type]Handler
}

// NewRegistry creates an empty strict registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[reflect.Type]Handler)}
}

// NewLenientRegistry creates an empty lenient registry.
func NewLenientRegistry() *Registry {
	r := NewRegistry()
	r.lenient = true
	return r
}

// Lenient reports whether lookups fall back to the supertype walk.
func (r *Registry) Lenient() bool {
	return r.lenient
}

// Add registers h under t and reports whether t had no handler before.
// It fails with ErrTypeMismatch when h does not own t.
func (r *Registry) Add(t reflect.Type, h Handler) (bool, error) {
	if t == nil || h == nil {
		return false, ErrNilHandler
	}
	if h.Type() != t {
		return false, fmt.Errorf("%w: handler owns %s, registered under %s", ErrTypeMismatch, h.Type(), t)
	}
	_, exists := r.handlers[t]
	r.handlers[t] = h
	if !exists {
		r.order = append(r.order, t)
		if t.Kind() == reflect.Interface {
			r.interfaces = append(r.interfaces, t)
		}
	}
	r.resolved.Clear()
	return !exists, nil
}

// Register is Add keyed by the handler's own type.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	_, err := r.Add(h.Type(), h)
	return err
}

// AddAll copies every entry of other into r, validating each one.
// Entries of other replace those of r.
func (r *Registry) AddAll(other *Registry) error {
	if other == nil {
		return nil
	}
	for _, t := range other.order {
		if _, err := r.Add(t, other.handlers[t]); err != nil {
			return err
		}
	}
	return nil
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []reflect.Type {
	out := make([]reflect.Type, len(r.order))
	copy(out, r.order)
	return out
}

// Clone returns an independent copy of r with the same strictness.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	c.lenient = r.lenient
	for _, t := range r.order {
		c.handlers[t] = r.handlers[t]
		c.order = append(c.order, t)
	}
	c.interfaces = append(c.interfaces, r.interfaces...)
	return c
}

// Get returns the handler for t. The exact type always wins over any
// lenient match.
func (r *Registry) Get(t reflect.Type) (Handler, bool) {
	if t == nil {
		return nil, false
	}
	if h, ok := r.handlers[t]; ok {
		return h, true
	}
	if !r.lenient {
		return nil, false
	}
	if v, ok := r.resolved.Load(t); ok {
		return v.(Handler), true
	}
	h, ok := r.search(t)
	if ok {
		r.resolved.Store(t, h)
	}
	return h, ok
}

// search walks the supertype graph of t breadth first.
func (r *Registry) search(t reflect.Type) (Handler, bool) {
	visited := map[reflect.Type]bool{t: true}
	queue := []reflect.Type{t}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, parent := range r.parents(current) {
			if visited[parent] {
				continue
			}
			visited[parent] = true
			if h, ok := r.handlers[parent]; ok {
				return h, true
			}
			queue = append(queue, parent)
		}
	}
	root := t
	for root.Kind() == reflect.Pointer {
		root = root.Elem()
	}
	if base, ok := predeclared[root.Kind()]; ok {
		if h, ok := r.handlers[base]; ok {
			return h, true
		}
	}
	return nil, false
}

// parents lists the direct supertypes of t: classes first, then interfaces
// in registration order.
func (r *Registry) parents(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	if t.Kind() == reflect.Pointer {
		out = append(out, t.Elem())
	}
	if t.Kind() == reflect.Interface {
		return out
	}
	ptr := reflect.PointerTo(t)
	for _, iface := range r.interfaces {
		if t.Implements(iface) || ptr.Implements(iface) {
			out = append(out, iface)
		}
	}
	return out
}

var predeclared = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
	reflect.String:  reflect.TypeFor[string](),
}
