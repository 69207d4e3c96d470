// Package dispatch provides delivery mechanisms for the message bus.
//
// The dispatch package implements both synchronous and asynchronous message
// delivery with panic recovery, context support, and configurable timeouts.
//
// # Dispatchers
//
// Two dispatcher implementations are provided:
//
//   - SyncDispatcher: Executes handlers synchronously in the caller's goroutine.
//     Used for subscriptions that need to observe a message before the
//     publisher continues.
//
//   - AsyncDispatcher: Executes handlers asynchronously using a worker pool
//     with a bounded queue. Used for subscriptions that must not block the
//     publisher (metrics collection, audit trails, slow consumers).
//
// # Panic Recovery
//
// Both dispatchers recover from panics in handlers, preventing a misbehaving
// subscriber from crashing the process. Panics are reported via a
// configurable PanicHandler callback.
//
// # Context Support
//
// Dispatchers respect context cancellation and deadlines. If a context is
// cancelled before or during handler execution, the dispatch returns
// context.Canceled or context.DeadlineExceeded.
//
// # Usage
//
// Synchronous dispatch:
//
//	dispatcher := dispatch.NewSyncDispatcher()
//	result := dispatcher.Dispatch(ctx, msg, handler)
//	if !result.IsSuccess() {
//	    // Handle error or panic
//	}
//
// Asynchronous dispatch:
//
//	dispatcher := dispatch.NewAsyncDispatcher(
//	    dispatch.WithWorkerCount(4),
//	    dispatch.WithQueueSize(1024),
//	)
//	if err := dispatcher.Start(); err != nil {
//	    // ...
//	}
//	defer dispatcher.Stop(context.Background())
//
//	err := dispatcher.Enqueue(ctx, msg, handler)
//
// # Result Handling
//
// The Result type captures the outcome of handler execution including
// success/failure status, error details, execution duration, and panic
// information if applicable.
package dispatch
