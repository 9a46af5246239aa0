package runtime

import (
	"context"
	"sync"
	"time"

	"groupguard/domain"
	"groupguard/repositories"
)

// fakeLockRepo keeps the record in memory and counts flushes.
type fakeLockRepo struct {
	record  *repositories.LockRecord
	saveErr error
	saves   int
}

func (f *fakeLockRepo) Load() (*repositories.LockRecord, error) {
	return f.record, nil
}

func (f *fakeLockRepo) Save(record repositories.LockRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.record = &record
	f.saves++
	return nil
}

type fakeCorpusRepo struct {
	entries []string
	loadErr error
	saveErr error
	saves   int
	appends int
}

func (f *fakeCorpusRepo) Load() ([]string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]string(nil), f.entries...), nil
}

func (f *fakeCorpusRepo) Append(entry string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries = append(f.entries, entry)
	f.appends++
	return nil
}

func (f *fakeCorpusRepo) Save(entries []string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries = append([]string(nil), entries...)
	f.saves++
	return nil
}

type sentMessage struct {
	out   domain.Outbound
	group domain.GroupID
}

type titleCall struct {
	title string
	group domain.GroupID
}

type nickCall struct {
	nick   string
	group  domain.GroupID
	member domain.MemberID
}

// recordingSession captures every remote call the guard issues.
type recordingSession struct {
	mu        sync.Mutex
	events    chan domain.InboundEvent
	sends     []sentMessage
	titles    []titleCall
	nicknames []nickCall
	sendErr   error
	titleErr  error
	nickErr   error
}

func newRecordingSession() *recordingSession {
	return &recordingSession{events: make(chan domain.InboundEvent, 16)}
}

func (s *recordingSession) Events() <-chan domain.InboundEvent {
	return s.events
}

func (s *recordingSession) SendMessage(_ context.Context, out domain.Outbound, group domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sends = append(s.sends, sentMessage{out: out, group: group})
	return nil
}

func (s *recordingSession) SetTitle(_ context.Context, title string, group domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titleErr != nil {
		return s.titleErr
	}
	s.titles = append(s.titles, titleCall{title: title, group: group})
	return nil
}

func (s *recordingSession) SetNickname(_ context.Context, nick string, group domain.GroupID, member domain.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nickErr != nil {
		return s.nickErr
	}
	s.nicknames = append(s.nicknames, nickCall{nick: nick, group: group, member: member})
	return nil
}

func (s *recordingSession) Close() error {
	return nil
}

func (s *recordingSession) sentTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.sends))
	for i, send := range s.sends {
		texts[i] = send.out.Text
	}
	return texts
}

// serialRunner collapses the async boundary: calls and completions run
// inline, so tests see every side effect synchronously.
type serialRunner struct{}

func (serialRunner) Async(call func() error, done func(err error)) {
	done(call())
}

func (serialRunner) Submit(fn func()) {
	fn()
}

type scheduledTask struct {
	delay time.Duration
	fire  func()
}

// manualClock records armed timers and fires them on demand. It is armed
// from the engine goroutine and fired from the test, hence the lock.
type manualClock struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, scheduledTask{delay: d, fire: fn})
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *manualClock) fireAll() {
	c.mu.Lock()
	tasks := c.tasks
	c.tasks = nil
	c.mu.Unlock()
	for _, task := range tasks {
		task.fire()
	}
}
