package event

import (
	"reflect"
)

// Event is implemented by every type that can be dispatched.
// A type opts in by embedding Base:
//
//	type OrderShipped struct {
//	    event.Base
//	    OrderID uint64
//	}
type Event interface {
	isEvent()
}

// Base marks its embedding struct as an Event. It carries no data.
type Base struct{}

func (Base) isEvent() {}

// Key is the identity of an event type. Two keys are equal only when they
// were derived from the same Go type, so structurally identical event types
// never share listeners.
type Key struct {
	t reflect.Type
}

// KeyOf returns the key for event type T.
// Registration and dispatch both derive their key through this function.
func KeyOf[T Event]() Key {
	return Key{t: reflect.TypeFor[T]()}
}

// IsZero reports whether k was not derived from any type.
func (k Key) IsZero() bool {
	return k.t == nil
}

// String returns the Go type name of the event, e.g. "orders.Shipped".
func (k Key) String() string {
	if k.t == nil {
		return "<none>"
	}
	return k.t.String()
}

// Name returns the unqualified type name of the event.
func (k Key) Name() string {
	if k.t == nil {
		return ""
	}
	return k.t.Name()
}
