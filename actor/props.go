package actor

// MailboxRequirement lets an actor's Producer demand a specific mailbox
// shape at spawn time (e.g. a priority-aware mailbox a generic Props
// wouldn't otherwise provide). A Props built without one gets the system's
// default mailbox config.
type MailboxRequirement struct {
	// ID names a mailbox configuration registered on the ActorSystemConfig
	// (see config.go's Mailboxes map). Empty means "use the default".
	ID string
}

// Producer constructs a fresh actor instance; called on pre_start and again
// on every restart, matching spec.md §3's "fresh instance but the same pid".
type Producer func() Actor

// Props describes how to spawn an actor: what produces it, what name to
// register it under, which mailbox/dispatcher it needs, and how failures in
// it should be supervised.
type Props struct {
	Producer           Producer
	Name               string
	MailboxRequirement *MailboxRequirement
	Supervisor         SupervisorStrategy
	DispatcherID       string
}

// PropsOf builds a Props from a producer with the system defaults: no fixed
// name (auto-numbered at spawn), the default mailbox, and a OneForOne
// restart-on-failure strategy.
func PropsOf(producer Producer) Props {
	return Props{
		Producer:   producer,
		Supervisor: DefaultSupervisorStrategy(),
	}
}

// WithName returns a copy of p registered under the given path segment
// instead of an auto-numbered one.
func (p Props) WithName(name string) Props {
	p.Name = name
	return p
}

// WithMailbox returns a copy of p requiring the named mailbox configuration.
func (p Props) WithMailbox(id string) Props {
	p.MailboxRequirement = &MailboxRequirement{ID: id}
	return p
}

// WithSupervisor returns a copy of p using the given supervisor strategy.
func (p Props) WithSupervisor(strategy SupervisorStrategy) Props {
	p.Supervisor = strategy
	return p
}

// WithDispatcher returns a copy of p bound to the named dispatcher
// configuration instead of the system default.
func (p Props) WithDispatcher(id string) Props {
	p.DispatcherID = id
	return p
}
