package domain

// Handlers is an ordered list of observer callbacks.
// Emit invokes them synchronously in registration order.
type Handlers[T any] struct {
	fns []func(T)
}

// Subscribe appends fn to the list. Nil callbacks are ignored.
func (h *Handlers[T]) Subscribe(fn func(T)) {
	if fn == nil {
		return
	}
	h.fns = append(h.fns, fn)
}

// Emit calls every subscriber with v.
// Callbacks subscribed while emitting are called from the next Emit on.
func (h *Handlers[T]) Emit(v T) {
	fns := h.fns
	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of subscribers.
func (h *Handlers[T]) Len() int {
	return len(h.fns)
}

// Clear removes all subscribers.
func (h *Handlers[T]) Clear() {
	h.fns = nil
}
