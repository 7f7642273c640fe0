// Package bus implements the typed publish/subscribe channel decoupling
// engine state changes from their observers. The bus is an explicitly
// constructed, injectable object passed to every component that publishes or
// listens; its lifecycle is tied to the engine's start/stop, not to package
// load.
//
// Publish is synchronous and fire-and-forget: listeners for a kind run in
// registration order on the publishing goroutine, so a single listener sees
// events in emission order. A listener that panics is recovered, converted
// into an error event and logged; it never propagates back to the publisher
// nor interrupts other listeners.
package bus
