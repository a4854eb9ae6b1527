// Package event provides a pub-sub event bus for decoupled inter-component
// communication in sparring.
//
// The flow engine publishes what is happening during a debate; the CLI
// renderer and the logs subscribe. Neither side knows about the other.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Session lifecycle:
//   - [SessionStartedEvent]: Emitted when a debate session begins
//   - [SessionCompletedEvent]: Emitted when a session reaches a terminal state
//
// Turns:
//   - [TurnStartedEvent]: Emitted before an agent responds
//   - [TurnCompletedEvent]: Emitted when a response is appended to history
//   - [TurnInterruptedEvent]: Emitted when the operator cancels a response
//
// Side effects:
//   - [SearchPerformedEvent]: Emitted after a web-search attempt
//   - [ContextQueriedEvent]: Emitted after a context-analyzer attempt
//
// Budget:
//   - [BudgetWarningEvent]: Emitted when the history crosses the warning threshold
//   - [BudgetTrimmedEvent]: Emitted after a history compaction
//
// End detection:
//   - [EndProposedEvent]: Emitted when end detection fires
//   - [EndResolvedEvent]: Emitted when a pending end is confirmed or declined
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously and protected against panics - a panicking handler will
// not prevent other handlers from being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe("turn.completed", func(e event.Event) {
//	    turn := e.(event.TurnCompletedEvent)
//	    fmt.Printf("[%s] %s\n", turn.Speaker, turn.Content)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	bus.Publish(event.NewTurnStartedEvent(1, "Proponent"))
package event
