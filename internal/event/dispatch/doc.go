// Package dispatch registers listeners and dispatches events to them.
//
// # Dispatchers
//
// Three dispatcher implementations are provided:
//
//   - SyncDispatcher: runs listeners in the caller's goroutine.
//
//   - AsyncDispatcher: runs listeners on a worker pool. A dispatch call
//     hands one listener at a time to the pool and waits for it before
//     handing over the next, so listeners still run strictly in order.
//
//   - NullDispatcher: accepts listeners and never runs them.
//
// Go has no generic methods, so registration and dispatch are package
// functions taking any Dispatcher:
//
//	d := dispatch.NewSyncDispatcher()
//	dispatch.Listen(d, func(ev *OrderShipped) error {
//	    ev.Notified = true
//	    return nil
//	})
//	err := dispatch.Dispatch(ctx, d, &OrderShipped{OrderID: 123})
//
// # Ordering and failure
//
// Listeners for an event type run in registration order. Each receives the
// same *T and sees the mutations of the listeners before it. The first
// listener to return an error stops the dispatch; the error is returned as
// is and the remaining listeners never run. A panicking listener is
// recovered and reported as *event.PanicError.
//
// # Context
//
// The context is checked before each listener starts. Once started, a
// listener is never interrupted; it receives the context and may observe
// cancellation itself.
//
// # Background dispatch
//
// Go starts a dispatch on its own copy of the event and returns a Pending
// whose Wait yields the mutated event:
//
//	p := dispatch.Go(ctx, d, OrderShipped{OrderID: 123})
//	shipped, err := p.Wait(ctx)
package dispatch
