package actor

import "time"

// SchedulerConfig configures the timing wheel an ActorSystem builds for
// itself (spec.md §6).
type SchedulerConfig struct {
	LevelSizes []int
}

// DefaultSchedulerConfig matches scheduler.DefaultLevelSizes.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{LevelSizes: []int{64, 64, 64, 64}}
}

// TickDriverKind selects which TickDriver implementation an ActorSystem
// constructs.
type TickDriverKind int

const (
	TickDriverAutomatic TickDriverKind = iota
	TickDriverManual
)

// TickDriverConfig configures the scheduler's tick source.
type TickDriverConfig struct {
	Kind       TickDriverKind
	Resolution time.Duration
}

// DefaultTickDriverConfig ticks once per millisecond, automatically.
func DefaultTickDriverConfig() TickDriverConfig {
	return TickDriverConfig{Kind: TickDriverAutomatic, Resolution: time.Millisecond}
}

// DispatcherKind selects which Executor a named dispatcher configuration
// builds.
type DispatcherKind int

const (
	DispatcherInline DispatcherKind = iota
	DispatcherThreadPool
	DispatcherTickDriven
)

// DispatcherConfig names one dispatcher configuration an actor's Props may
// opt into via Props.DispatcherID.
type DispatcherConfig struct {
	Kind            DispatcherKind
	MaxInFlight     int // ThreadPool only; 0 == unbounded
	ThroughputLimit int
}

// DefaultDispatcherConfig runs actor turns inline-per-submit on a bounded
// thread pool sized to a modest default concurrency.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Kind: DispatcherThreadPool, MaxInFlight: 8, ThroughputLimit: 30}
}

// RemotingConfig is the hook a remoting collaborator attaches to; the core
// carries it but never opens a socket itself (spec.md §1 non-goals).
type RemotingConfig struct {
	CanonicalHost     string
	CanonicalPort     int
	QuarantineDuration time.Duration
}

// ActorSystemConfig enumerates every knob spec.md §6 names.
type ActorSystemConfig struct {
	SystemName          string
	Scheduler           SchedulerConfig
	TickDriver          TickDriverConfig
	ExtensionInstallers []func(*ActorSystem) error
	Dispatchers         map[string]DispatcherConfig
	Mailboxes           map[string]MailboxConfig
	Remoting            *RemotingConfig
	DefaultSubscriber   bool
}

// NewDefaultConfig returns the system's out-of-the-box configuration,
// matching the teacher's utils.DefaultConfig() idiom of one constructor
// function for a fully-populated struct literal rather than a parser.
func NewDefaultConfig() ActorSystemConfig {
	return ActorSystemConfig{
		SystemName:        "default-system",
		Scheduler:         DefaultSchedulerConfig(),
		TickDriver:        DefaultTickDriverConfig(),
		Dispatchers:       map[string]DispatcherConfig{"default": DefaultDispatcherConfig()},
		Mailboxes:         map[string]MailboxConfig{"default": DefaultMailboxConfig()},
		DefaultSubscriber: true,
	}
}

// ConfigOption mutates an ActorSystemConfig, for the functional-options
// idiom layered over NewDefaultConfig.
type ConfigOption func(*ActorSystemConfig)

// WithSystemName overrides the system name.
func WithSystemName(name string) ConfigOption {
	return func(c *ActorSystemConfig) { c.SystemName = name }
}

// WithScheduler overrides the scheduler configuration.
func WithScheduler(cfg SchedulerConfig) ConfigOption {
	return func(c *ActorSystemConfig) { c.Scheduler = cfg }
}

// WithTickDriver overrides the tick driver configuration.
func WithTickDriver(cfg TickDriverConfig) ConfigOption {
	return func(c *ActorSystemConfig) { c.TickDriver = cfg }
}

// WithDispatcher registers (or overrides) a named dispatcher configuration.
func WithDispatcher(id string, cfg DispatcherConfig) ConfigOption {
	return func(c *ActorSystemConfig) {
		if c.Dispatchers == nil {
			c.Dispatchers = make(map[string]DispatcherConfig)
		}
		c.Dispatchers[id] = cfg
	}
}

// WithMailbox registers (or overrides) a named mailbox configuration.
func WithMailbox(id string, cfg MailboxConfig) ConfigOption {
	return func(c *ActorSystemConfig) {
		if c.Mailboxes == nil {
			c.Mailboxes = make(map[string]MailboxConfig)
		}
		c.Mailboxes[id] = cfg
	}
}

// WithRemoting attaches a remoting hook.
func WithRemoting(cfg RemotingConfig) ConfigOption {
	return func(c *ActorSystemConfig) { c.Remoting = &cfg }
}

// NewConfig applies opts over NewDefaultConfig().
func NewConfig(opts ...ConfigOption) ActorSystemConfig {
	cfg := NewDefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
