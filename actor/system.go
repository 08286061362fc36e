package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lguibr/bollywood/message"
	"github.com/lguibr/bollywood/scheduler"
	"github.com/lguibr/bollywood/waitqueue"
)

// ErrSystemTerminated is the error every WhenTerminated waiter completes
// with once the system fully stops.
var ErrSystemTerminated = errors.New("actor: system terminated")

// PathRegistry maps canonical path URIs to pids, for lookups that arrive as
// a path (e.g. from a remoting collaborator) rather than a live ActorRef.
type PathRegistry struct {
	mu   sync.RWMutex
	byURI map[string]Pid
}

func newPathRegistry() *PathRegistry {
	return &PathRegistry{byURI: make(map[string]Pid)}
}

func (r *PathRegistry) register(path *ActorPath, pid Pid) {
	r.mu.Lock()
	r.byURI[path.URI()] = pid
	r.mu.Unlock()
}

func (r *PathRegistry) unregister(path *ActorPath) {
	r.mu.Lock()
	delete(r.byURI, path.URI())
	r.mu.Unlock()
}

// Resolve looks up the pid last registered under uri.
func (r *PathRegistry) Resolve(uri string) (Pid, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pid, ok := r.byURI[uri]
	return pid, ok
}

// ActorRefProvider resolves a path to an ActorRef outside the local cell
// table — the hook a remoting/cluster collaborator registers through
// ActorSystem.RegisterActorRefProvider.
type ActorRefProvider interface {
	Resolve(path *ActorPath) (ActorRef, bool)
}

// ActorSystem is the top-level container: the guardian hierarchy, path and
// extension registries, event stream, and scheduler context spec.md §4.9
// describes.
type ActorSystem struct {
	config ActorSystemConfig
	events *EventStream

	pids *pidAllocator

	cellsMu sync.RWMutex
	cells   map[uint32]*ActorCell

	paths    *PathRegistry
	rootPath *ActorPath

	schedulerWheel *scheduler.Wheel
	tickDriver     scheduler.TickDriver
	scheduler      *scheduler.Scheduler

	extMu      sync.RWMutex
	extensions map[string]any

	providersMu sync.RWMutex
	providers   []ActorRefProvider

	root           *ActorCell
	userGuardian   *ActorCell
	systemGuardian *ActorCell

	terminated     atomic.Bool
	terminatedWait *waitqueue.WaitQueue[struct{}]
}

// guardianActor is a no-op Actor backing the root/user/system guardians: it
// exists only to own children and receive Failure/Terminated system
// messages, matching the teacher's top-level Engine having no "actor
// behavior" of its own beyond bookkeeping.
type guardianActor struct{}

func (guardianActor) Receive(ctx ActorContext, view message.AnyMessageView) error { return nil }

// New constructs an ActorSystem from config: a root guardian at "/", a
// "/user" guardian spawned with userGuardianProps, and a "/system" guardian
// spawned alongside it.
func New(config ActorSystemConfig, userGuardianProps Props) (*ActorSystem, error) {
	wheel := scheduler.NewWheel(config.Scheduler.LevelSizes)
	var driver scheduler.TickDriver
	switch config.TickDriver.Kind {
	case TickDriverManual:
		driver = scheduler.NewManualDriver(config.TickDriver.Resolution)
	default:
		driver = scheduler.NewAutomaticDriver(config.TickDriver.Resolution)
	}
	sched := scheduler.New(wheel, driver)

	sys := &ActorSystem{
		config:         config,
		events:         NewEventStream(config.DefaultSubscriber),
		pids:           &pidAllocator{},
		cells:          make(map[uint32]*ActorCell),
		paths:          newPathRegistry(),
		rootPath:       NewRootPath(config.SystemName),
		schedulerWheel: wheel,
		tickDriver:     driver,
		scheduler:      sched,
		extensions:     make(map[string]any),
		terminatedWait: waitqueue.New[struct{}](),
	}
	sched.Start()

	root, err := sys.spawnAt(nil, sys.rootPath, PropsOf(func() Actor { return guardianActor{} }))
	if err != nil {
		return nil, err
	}
	sys.root = root

	userPath, err := sys.rootPath.Child("user")
	if err != nil {
		return nil, err
	}
	if userGuardianProps.Producer == nil {
		userGuardianProps = PropsOf(func() Actor { return guardianActor{} })
	}
	userGuardian, err := sys.spawnAt(root, userPath, userGuardianProps)
	if err != nil {
		return nil, err
	}
	sys.userGuardian = userGuardian

	systemPath, err := sys.rootPath.Child("system")
	if err != nil {
		return nil, err
	}
	systemGuardian, err := sys.spawnAt(root, systemPath, PropsOf(func() Actor { return guardianActor{} }))
	if err != nil {
		return nil, err
	}
	sys.systemGuardian = systemGuardian

	for _, install := range config.ExtensionInstallers {
		if err := install(sys); err != nil {
			return nil, err
		}
	}
	return sys, nil
}

// Events returns the system's event stream.
func (s *ActorSystem) Events() *EventStream { return s.events }

// Scheduler returns the system's scheduler, for collaborators that need
// direct access (e.g. a test advancing a ManualDriver).
func (s *ActorSystem) Scheduler() *scheduler.Scheduler { return s.scheduler }

// UserGuardian returns the "/user" guardian's ref, the conventional spawn
// point for application actors.
func (s *ActorSystem) UserGuardian() ActorRef { return s.userGuardian.self }

// Spawn spawns props as a child of the "/user" guardian.
func (s *ActorSystem) Spawn(props Props) (ActorRef, error) {
	return s.spawn(s.userGuardian, props)
}

func (s *ActorSystem) spawn(parent *ActorCell, props Props) (ActorRef, error) {
	if s.terminated.Load() {
		return ActorRef{}, &SpawnError{Kind: SpawnSystemShuttingDown}
	}
	name := props.Name
	var path *ActorPath
	var err error
	if name == "" {
		index := s.pids.next.Load() + 1
		path = parent.path.childReserved(fmt.Sprintf("$%d", index))
	} else {
		path, err = parent.path.Child(name)
		if err != nil {
			return ActorRef{}, &SpawnError{Kind: SpawnInvalidName, Name: name}
		}
	}
	cell, err := s.spawnAt(parent, path, props)
	if err != nil {
		return ActorRef{}, err
	}
	parent.mu.Lock()
	parent.children[cell.pid.Index] = &ChildRef{Pid: cell.pid, Ref: cell.self, Cell: cell}
	parent.mu.Unlock()
	return cell.self, nil
}

func (s *ActorSystem) spawnAt(parent *ActorCell, path *ActorPath, props Props) (*ActorCell, error) {
	if props.Producer == nil {
		return nil, &SpawnError{Kind: SpawnMailboxMisconfigured, Name: props.Name}
	}
	mailboxConfig := DefaultMailboxConfig()
	if props.MailboxRequirement != nil {
		cfg, ok := s.config.Mailboxes[props.MailboxRequirement.ID]
		if !ok {
			return nil, &SpawnError{Kind: SpawnMailboxMisconfigured, Name: props.Name}
		}
		mailboxConfig = cfg
	} else if cfg, ok := s.config.Mailboxes["default"]; ok {
		mailboxConfig = cfg
	}

	index := s.pids.allocate()
	pid := Pid{Index: index, Incarnation: 1}
	mailbox := NewMailbox(pid, mailboxConfig, s.events)
	cell := newActorCell(s, parent, pid, path, props, mailbox)

	executor := s.buildExecutor(props.DispatcherID)
	cell.dispatcher = NewDispatcher(mailbox, executor, nil, cell.deliver)
	mailbox.BindDispatcher(cell.dispatcher)

	s.cellsMu.Lock()
	s.cells[pid.Index] = cell
	s.cellsMu.Unlock()
	s.paths.register(path, pid)

	_ = mailbox.EnqueueSystem(message.NewAnyOwnedMessage(sysCreate{}, nil))
	cell.dispatcher.Schedule()
	return cell, nil
}

func (s *ActorSystem) buildExecutor(dispatcherID string) Executor {
	id := dispatcherID
	if id == "" {
		id = "default"
	}
	cfg, ok := s.config.Dispatchers[id]
	if !ok {
		cfg = DefaultDispatcherConfig()
	}
	switch cfg.Kind {
	case DispatcherInline:
		return InlineExecutor{}
	case DispatcherTickDriven:
		return NewTickDrivenExecutor(s.scheduler.TickFeed())
	default:
		return NewThreadPoolExecutor(cfg.MaxInFlight)
	}
}

func (s *ActorSystem) cellFor(pid Pid) (*ActorCell, bool) {
	s.cellsMu.RLock()
	defer s.cellsMu.RUnlock()
	cell, ok := s.cells[pid.Index]
	if !ok || cell.pid.Incarnation != pid.Incarnation {
		return nil, false
	}
	return cell, true
}

func (s *ActorSystem) unregisterCell(pid Pid, path *ActorPath) {
	s.cellsMu.Lock()
	delete(s.cells, pid.Index)
	s.cellsMu.Unlock()
	s.paths.unregister(path)
}

func (s *ActorSystem) markTerminated() {
	if s.terminated.CompareAndSwap(false, true) {
		s.terminatedWait.NotifyErrorAll(ErrSystemTerminated)
	}
}

// WhenTerminated returns a future that completes (with ErrSystemTerminated)
// once the system finishes terminating.
func (s *ActorSystem) WhenTerminated() (*waitqueue.WaitShared[struct{}], error) {
	if s.terminated.Load() {
		return nil, ErrSystemTerminated
	}
	return s.terminatedWait.Register()
}

// Terminate stops the root guardian on the calling goroutine, which stops
// /user, /system and every descendant depth-first, then halts the scheduler
// and marks the system terminated. All of this finishes before Terminate
// returns; ctx is not consulted.
func (s *ActorSystem) Terminate(ctx context.Context) error {
	_ = Tell(s.userGuardian.self, sysStop{}, nil)
	s.userGuardian.dispatcher.Schedule()
	_ = Tell(s.systemGuardian.self, sysStop{}, nil)
	s.systemGuardian.dispatcher.Schedule()
	s.root.stop()
	s.scheduler.Stop()
	s.markTerminated()
	_ = ctx
	return nil
}

// RegisterExtension stores ext under id for later retrieval, matching
// spec.md §4.9's register_extension.
func (s *ActorSystem) RegisterExtension(id string, ext any) {
	s.extMu.Lock()
	s.extensions[id] = ext
	s.extMu.Unlock()
}

// Extension retrieves a previously registered extension.
func (s *ActorSystem) Extension(id string) (any, bool) {
	s.extMu.RLock()
	defer s.extMu.RUnlock()
	ext, ok := s.extensions[id]
	return ext, ok
}

// RegisterActorRefProvider adds a provider consulted when a path doesn't
// resolve against the local cell table.
func (s *ActorSystem) RegisterActorRefProvider(p ActorRefProvider) {
	s.providersMu.Lock()
	s.providers = append(s.providers, p)
	s.providersMu.Unlock()
}

// ResolvePath resolves uri against the local registry first, then every
// registered ActorRefProvider in order.
func (s *ActorSystem) ResolvePath(path *ActorPath) (ActorRef, bool) {
	if pid, ok := s.paths.Resolve(path.URI()); ok {
		if cell, ok := s.cellFor(pid); ok {
			return cell.self, true
		}
	}
	s.providersMu.RLock()
	defer s.providersMu.RUnlock()
	for _, p := range s.providers {
		if ref, ok := p.Resolve(path); ok {
			return ref, true
		}
	}
	return ActorRef{}, false
}

// Wait blocks until the system terminates or d elapses, whichever first.
func (s *ActorSystem) Wait(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for !s.terminated.Load() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}
