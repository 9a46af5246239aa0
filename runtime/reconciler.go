package runtime

import (
	"context"
	"log/slog"
	"time"

	"groupguard/chat"
	"groupguard/domain"
)

// reassertDelay is how long a corrective mutation waits before firing. The
// delay sits out the platform's own event settling; it is deliberately not
// configurable and a scheduled correction is not cancellable.
const reassertDelay = time.Second

// Reconciler counteracts external edits to locked attributes. Each
// qualifying notification schedules its own independent correction; there
// is no coalescing and a failed correction is not retried; the lock stays
// declared and the next external change decides what happens.
type Reconciler struct {
	log      *slog.Logger
	registry *LockRegistry
	session  chat.Session
	clock    Clock
	runner   Runner
}

func NewReconciler(log *slog.Logger, registry *LockRegistry, session chat.Session, clock Clock, runner Runner) *Reconciler {
	return &Reconciler{
		log:      log,
		registry: registry,
		session:  session,
		clock:    clock,
		runner:   runner,
	}
}

// Observe inspects an attribute-change notification. The locked value is
// captured now, at schedule time: an unlock landing during the delay does
// not suppress the already-scheduled reassertion.
func (r *Reconciler) Observe(ctx context.Context, evt domain.InboundEvent) {
	switch ev := evt.(type) {
	case domain.TitleChanged:
		title, ok := r.registry.LockedTitle(ev.Room)
		if !ok {
			return
		}
		r.log.Info("locked title changed externally, scheduling reassertion", "group", ev.Room)
		r.schedule(func() {
			r.runner.Async(
				func() error { return r.session.SetTitle(ctx, title, ev.Room) },
				func(err error) {
					if err != nil {
						r.log.Error("title reassertion failed", "group", ev.Room, "err", err)
					}
				},
			)
		})
	case domain.NicknameChanged:
		nick, ok := r.registry.LockedNickname(ev.Room, ev.Member)
		if !ok {
			return
		}
		r.log.Info("locked nickname changed externally, scheduling reassertion",
			"group", ev.Room, "member", ev.Member)
		r.schedule(func() {
			r.runner.Async(
				func() error { return r.session.SetNickname(ctx, nick, ev.Room, ev.Member) },
				func(err error) {
					if err != nil {
						r.log.Error("nickname reassertion failed",
							"group", ev.Room, "member", ev.Member, "err", err)
					}
				},
			)
		})
	}
}

// schedule arms the timer and routes its firing back onto the event
// timeline; the timer callback itself runs on the clock's goroutine.
func (r *Reconciler) schedule(fire func()) {
	r.clock.AfterFunc(reassertDelay, func() {
		r.runner.Submit(fire)
	})
}
