// Package event provides a pub-sub event bus that decouples build execution
// from reporting.
//
// The ui runner publishes an event for every reporting call and every step
// transition. Renderers and recorders subscribe to the bus instead of being
// called directly, so several sinks can observe one build.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Step events ([StepStartedEvent], [StepSkippedEvent], [StepCompletedEvent],
// [StepFailedEvent], [StepLogEvent]) carry a [StepRef] locating the step.
//
// Group events ([GroupEvent]) bracket a project's step group and record
// skipped groups.
//
// Build events ([BuildEvent]) mirror the title, separator and epilogue
// reporting calls.
//
// # Subscriptions
//
// Subscribe accepts an exact type ("step.failed"), a category ("step.*") or
// the wildcard "*":
//
//	bus := event.NewBus(logger)
//	bus.Subscribe("step.*", func(e event.Event) {
//	    // render step progress
//	})
//
// Publish is synchronous. Handlers run on the publishing goroutine, and steps
// publish concurrently, so handlers must synchronize their own state.
package event
