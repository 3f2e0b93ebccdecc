// Package event defines the event marker, event type keys, listener types
// and the listener registry used by the dispatchers in package dispatch.
//
// # Events
//
// Any struct becomes an event by embedding Base:
//
//	type OrderShipped struct {
//	    event.Base
//	    OrderID uint64
//	}
//
// # Keys
//
// Listeners are stored per event type. The key of a type is derived with
// KeyOf, which wraps the type's reflect.Type. Registration and dispatch use
// the same derivation, so a listener stored for T is only ever handed a *T.
// Types that merely share a field layout have distinct keys.
//
// # Listeners
//
// Two listener shapes exist:
//
//   - Listener[T]: func(ev *T) error, runs to completion without blocking.
//   - AsyncListener[T]: func(ctx, ev *T) error, may block on I/O.
//
// Both receive a pointer to the single event value being dispatched. Each
// listener has exclusive access to it for the duration of its own call; the
// next listener starts only after the previous one returned.
//
// # Registry
//
// The Registry keeps one append-only sequence per key. Insertion order is
// dispatch order. There is no removal.
package event
