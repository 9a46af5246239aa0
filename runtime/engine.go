package runtime

import (
	"context"
	"log/slog"

	"groupguard/chat"
	"groupguard/domain"
	"groupguard/errors"
)

// Runner is how components leave and re-enter the event timeline. Async runs
// a blocking remote call off the timeline and delivers its completion back
// onto it; Submit posts a plain task. Everything passed to done or Submit
// executes on the single event-processing goroutine, so registry and corpus
// mutations never race.
type Runner interface {
	Async(call func() error, done func(err error))
	Submit(fn func())
}

// Engine drives the single logical thread of control: inbound events and
// re-entering completions are interleaved on one goroutine, one at a time,
// in arrival order.
type Engine struct {
	log        *slog.Logger
	session    chat.Session
	dispatcher *Dispatcher
	reconciler *Reconciler
	tasks      chan func()
}

func NewEngine(log *slog.Logger, session chat.Session, bufferSize int) *Engine {
	return &Engine{
		log:     log,
		session: session,
		tasks:   make(chan func(), bufferSize),
	}
}

// Attach wires the two event consumers. They need the engine as their
// Runner, so they are built after it and attached before Run.
func (e *Engine) Attach(dispatcher *Dispatcher, reconciler *Reconciler) {
	e.dispatcher = dispatcher
	e.reconciler = reconciler
}

// Run blocks until the context is cancelled or the event stream ends. The
// stream is non-restartable: its end is fatal to the caller.
func (e *Engine) Run(ctx context.Context) error {
	events := e.session.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-e.tasks:
			fn()
		case evt, ok := <-events:
			if !ok {
				return errors.ErrStreamClosed
			}
			e.handle(ctx, evt)
		}
	}
}

func (e *Engine) handle(ctx context.Context, evt domain.InboundEvent) {
	switch ev := evt.(type) {
	case domain.CommandCandidate:
		e.dispatcher.Handle(ctx, ev)
	case domain.TitleChanged, domain.NicknameChanged:
		e.reconciler.Observe(ctx, evt)
	default:
		e.log.Debug("ignoring unknown inbound event", "group", evt.Group())
	}
}

func (e *Engine) Async(call func() error, done func(err error)) {
	go func() {
		err := call()
		e.Submit(func() { done(err) })
	}()
}

func (e *Engine) Submit(fn func()) {
	e.tasks <- fn
}
