package actor

import (
	"context"
	"sync"

	"github.com/lguibr/bollywood/message"
	"github.com/lguibr/bollywood/queue"
	"github.com/lguibr/bollywood/scheduler"
	"golang.org/x/sync/errgroup"
)

// Executor runs submitted actor turns. Dispatcher is parameterized over one
// so the same turn-draining logic works whether turns run inline, on a
// bounded goroutine pool, or off scheduler ticks (spec.md §4.5).
type Executor interface {
	// Submit runs task, possibly asynchronously. Submit itself must not
	// block on task's completion.
	Submit(task func())
	// Shutdown waits for in-flight tasks to finish or ctx to expire.
	Shutdown(ctx context.Context) error
}

// InlineExecutor runs every submitted task synchronously on the calling
// goroutine — the simplest executor, useful for tests and for embedding the
// runtime in a single-threaded host.
type InlineExecutor struct{}

func (InlineExecutor) Submit(task func())            { task() }
func (InlineExecutor) Shutdown(ctx context.Context) error { return nil }

// ThreadPoolExecutor runs submitted tasks on an errgroup.Group, bounding
// concurrency via SetLimit and aggregating shutdown-wait the way
// webitel-im-delivery-service's peer enricher uses errgroup to join two
// concurrent lookups — generalized here to an open-ended stream of
// dispatcher turns rather than a fixed fan-out of two.
type ThreadPoolExecutor struct {
	group *errgroup.Group

	mu     sync.Mutex
	closed bool
}

// NewThreadPoolExecutor constructs a pool bounding concurrency at maxInFlight
// (0 means unbounded, matching errgroup's zero-value behavior).
func NewThreadPoolExecutor(maxInFlight int) *ThreadPoolExecutor {
	g := &errgroup.Group{}
	if maxInFlight > 0 {
		g.SetLimit(maxInFlight)
	}
	return &ThreadPoolExecutor{group: g}
}

func (e *ThreadPoolExecutor) Submit(task func()) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	e.group.Go(func() error {
		task()
		return nil
	})
}

// Shutdown marks the pool closed to further Submits and waits for
// in-flight tasks to finish, or for ctx to expire first.
func (e *ThreadPoolExecutor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TickDrivenExecutor runs submitted tasks on a dedicated goroutine that
// wakes on a scheduler.TickFeed signal rather than immediately on Submit —
// for embedding the dispatcher in a host that wants all actor turns to
// advance in lockstep with its own tick loop (e.g. a game loop), grounded on
// the teacher's ticker-driven `startTickers`/engine-step pattern.
type TickDrivenExecutor struct {
	feed    *scheduler.TickFeed
	pending *queue.Unbounded[func()]
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewTickDrivenExecutor starts the consumer goroutine immediately, draining
// queued tasks each time feed is signaled.
func NewTickDrivenExecutor(feed *scheduler.TickFeed) *TickDrivenExecutor {
	e := &TickDrivenExecutor{
		feed:    feed,
		pending: queue.NewUnbounded[func()](),
		done:    make(chan struct{}),
	}
	e.wg.Add(1)
	go e.loop()
	return e
}

func (e *TickDrivenExecutor) loop() {
	defer e.wg.Done()
	for e.feed.Signal().Wait(e.done) {
		for {
			task, err := e.pending.Poll()
			if err != nil {
				break
			}
			task()
		}
	}
}

func (e *TickDrivenExecutor) Submit(task func()) {
	_, _ = e.pending.Offer(task)
}

// Shutdown stops the consumer goroutine and waits for it to drain its
// current batch; sync.Once makes repeated calls close it exactly once
// (SPEC_FULL.md's Open Question Decision 3).
func (e *TickDrivenExecutor) Shutdown(ctx context.Context) error {
	e.once.Do(func() { close(e.done) })
	waited := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatcher owns a mailbox and drives its turns through an Executor,
// enforcing the throughput limit and system-before-user ordering spec.md
// §4.5 describes.
type Dispatcher struct {
	mailbox  *Mailbox
	executor Executor
	pipeline *middlewarePipeline
	invoke   func(envelope inboundEnvelope)
}

// inboundEnvelope is what the dispatcher hands to the cell for one message.
type inboundEnvelope struct {
	isSystem bool
	msg      message.AnyOwnedMessage
}

// NewDispatcher constructs a dispatcher over mailbox, running turns on
// executor and invoking deliver for each drained message.
func NewDispatcher(mailbox *Mailbox, executor Executor, pipeline *middlewarePipeline, deliver func(inboundEnvelope)) *Dispatcher {
	return &Dispatcher{mailbox: mailbox, executor: executor, pipeline: pipeline, invoke: deliver}
}

// Schedule attempts the idle→running transition and, on success, submits a
// run to the executor. Re-entrant calls while already running are coalesced
// into the mailbox's needs-reschedule bit rather than double-submitting.
func (d *Dispatcher) Schedule() {
	if d.mailbox.RequestSchedule() {
		d.executor.Submit(d.run)
	}
}

// run drains up to the mailbox's throughput limit, system queue first, then
// attempts to go idle — spinning back into another pass if a late enqueue
// raised needs-reschedule while this pass was draining, or if drainOnce
// itself left a backlog behind because it hit quota first.
func (d *Dispatcher) run() {
	for {
		if d.drainOnce() {
			// Quota exhausted with messages still queued: spec.md §4.5 step
			// 5 requires raising needs-reschedule so SetIdle below spins
			// back into another pass instead of stranding the backlog.
			d.mailbox.RequestSchedule()
		}
		if d.mailbox.SetIdle() {
			return
		}
	}
}

// drainOnce runs up to one throughput-limit's worth of turns and reports
// whether messages remain queued afterward.
func (d *Dispatcher) drainOnce() (workRemains bool) {
	limit := d.mailbox.ThroughputLimit()
	if limit <= 0 {
		limit = 1
	}
	for i := 0; i < limit; i++ {
		if msg, ok := d.mailbox.PollSystem(); ok {
			d.deliverThroughPipeline(inboundEnvelope{isSystem: true, msg: msg})
			continue
		}
		msg, ok := d.mailbox.PollUser()
		if !ok {
			return false
		}
		d.deliverThroughPipeline(inboundEnvelope{isSystem: false, msg: msg})
	}
	return d.mailbox.SystemLen() > 0 || d.mailbox.UserLen() > 0
}

func (d *Dispatcher) deliverThroughPipeline(envelope inboundEnvelope) {
	if d.pipeline == nil {
		d.invoke(envelope)
		return
	}
	d.pipeline.run(envelope, d.invoke)
}
