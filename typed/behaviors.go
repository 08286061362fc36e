package typed

// Same keeps whatever behavior is already current.
func Same[M any]() Behavior[M] { return Behavior[M]{kind: same} }

// Stopped triggers ctx.StopSelf() once and terminates the actor.
func Stopped[M any]() Behavior[M] { return Behavior[M]{kind: stopped} }

// Ignore discards the message/signal and keeps the current behavior.
func Ignore[M any]() Behavior[M] { return Behavior[M]{kind: ignore} }

// ReceiveMessage builds an active behavior handling typed messages, the Go
// rendering of spec.md §4.8's `Behaviors::receive_message`. (Go methods
// can't themselves be generic, so the builder namespace is a set of plain
// functions rather than a `Behaviors` value.)
func ReceiveMessage[M any](handler MessageHandler[M]) Behavior[M] {
	return Behavior[M]{kind: active, onMessage: handler}
}

// ReceiveSignal returns a copy of b with its signal handler replaced,
// letting a behavior built by ReceiveMessage also react to lifecycle
// signals (Started, Stopped, Terminated, AdapterFailed).
func ReceiveSignal[M any](b Behavior[M], handler SignalHandler[M]) Behavior[M] {
	b.onSignal = handler
	if b.kind == same {
		b.kind = active
	}
	return b
}

// Setup produces the initial behavior lazily, the first time the backing
// actor processes SignalStarted.
func Setup[M any](factory SetupFactory[M]) Behavior[M] {
	return Behavior[M]{kind: setup, factory: factory}
}
