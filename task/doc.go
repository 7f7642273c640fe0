// Package task implements the admission-controlled execution framework for
// operations expected to outlive one request/response cycle. A task is
// admitted through a counted limiter (backpressure), runs on its own
// cancellable context, and stores a detached result payload that callers poll
// for until the task reaches a terminal status.
//
// The limiter slot of an admitted task is released exactly once on every exit
// path: success, failure, or cancellation, including a cancellation racing
// with natural completion.
package task
