package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"groupguard/domain"
)

type reconcilerFixture struct {
	reconciler *Reconciler
	registry   *LockRegistry
	session    *recordingSession
	clock      *manualClock
}

func newReconcilerFixture(t *testing.T) reconcilerFixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry, err := LoadLockRegistry(log, &fakeLockRepo{}, "admin-1", "!")
	require.NoError(t, err)

	session := newRecordingSession()
	clock := &manualClock{}
	return reconcilerFixture{
		reconciler: NewReconciler(log, registry, session, clock, serialRunner{}),
		registry:   registry,
		session:    session,
		clock:      clock,
	}
}

func TestReconciler_Reasserts_Locked_Title_After_Delay(t *testing.T) {
	req := require.New(t)
	f := newReconcilerFixture(t)
	f.registry.SetLockedTitle("G1", "Team Alpha")

	f.reconciler.Observe(context.Background(), domain.TitleChanged{Room: "G1"})

	// Nothing happens before the delay elapses
	req.Empty(f.session.titles)
	req.Len(f.clock.tasks, 1)
	req.Equal(time.Second, f.clock.tasks[0].delay)

	f.clock.fireAll()
	req.Equal([]titleCall{{title: "Team Alpha", group: "G1"}}, f.session.titles)
}

func TestReconciler_Ignores_Unlocked_Title(t *testing.T) {
	req := require.New(t)
	f := newReconcilerFixture(t)

	f.reconciler.Observe(context.Background(), domain.TitleChanged{Room: "G1"})

	req.Empty(f.clock.tasks)
	req.Empty(f.session.titles)
}

func TestReconciler_Reasserts_Locked_Nickname_Only(t *testing.T) {
	req := require.New(t)
	f := newReconcilerFixture(t)
	f.registry.SetLockedNickname("G1", "42", "Bob")

	f.reconciler.Observe(context.Background(), domain.NicknameChanged{Room: "G1", Member: "42"})
	f.reconciler.Observe(context.Background(), domain.NicknameChanged{Room: "G1", Member: "99"})

	f.clock.fireAll()
	req.Equal([]nickCall{{nick: "Bob", group: "G1", member: "42"}}, f.session.nicknames)
}

func TestReconciler_Each_Notification_Schedules_Independently(t *testing.T) {
	req := require.New(t)
	f := newReconcilerFixture(t)
	f.registry.SetLockedTitle("G1", "Team Alpha")

	// No coalescing: rapid successive notifications each get their own
	// corrective action.
	f.reconciler.Observe(context.Background(), domain.TitleChanged{Room: "G1"})
	f.reconciler.Observe(context.Background(), domain.TitleChanged{Room: "G1"})

	f.clock.fireAll()
	req.Len(f.session.titles, 2)
}

func TestReconciler_Uses_Value_Captured_At_Schedule_Time(t *testing.T) {
	req := require.New(t)
	f := newReconcilerFixture(t)
	f.registry.SetLockedTitle("G1", "Team Alpha")

	f.reconciler.Observe(context.Background(), domain.TitleChanged{Room: "G1"})

	// An unlock during the delay does not cancel the scheduled correction
	f.registry.ClearLockedTitle("G1")
	f.clock.fireAll()

	req.Equal([]titleCall{{title: "Team Alpha", group: "G1"}}, f.session.titles)
}

func TestReconciler_Correction_Failure_Leaves_Lock_Declared(t *testing.T) {
	req := require.New(t)
	f := newReconcilerFixture(t)
	f.registry.SetLockedTitle("G1", "Team Alpha")
	f.session.titleErr = assertionError("thread is read-only")

	f.reconciler.Observe(context.Background(), domain.TitleChanged{Room: "G1"})
	f.clock.fireAll()

	// No retry was scheduled and the lock is still declared
	req.Empty(f.clock.tasks)
	title, locked := f.registry.LockedTitle("G1")
	req.True(locked)
	req.Equal("Team Alpha", title)
}
