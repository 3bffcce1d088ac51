package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"
)

var ErrNoRuns = errors.New("reminder: a reminder needs at least one run")

// Reminder is a direct message repeated a fixed number of times.
type Reminder struct {
	UserID  snowflake.ID
	Content string
	Count   int
}

// SendFunc delivers one reminder run.
type SendFunc func(ctx context.Context, r Reminder) error

// Scheduler repeats reminders on a fixed interval and forgets them after their last run.
type Scheduler struct {
	interval time.Duration
	send     SendFunc
	cron     *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[cron.EntryID]*job
	started bool
}

type job struct {
	scheduler *Scheduler
	id        cron.EntryID
	reminder  Reminder
	runs      int
}

func (j *job) Run() {
	j.scheduler.run(j)
}

func New(interval time.Duration, send SendFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		interval: interval,
		send:     send,
		cron: cron.New(
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{})),
		),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[cron.EntryID]*job),
	}
}

// Schedule registers r. The first message goes out one interval from now.
func (s *Scheduler) Schedule(r Reminder) (cron.EntryID, error) {
	if r.Count <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrNoRuns, r.Count)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &job{scheduler: s, reminder: r}
	j.id = s.cron.Schedule(cron.Every(s.interval), j)
	s.entries[j.id] = j
	slog.Debug("kasugai: scheduled reminder",
		slog.Any("user.id", r.UserID),
		slog.Int("count", r.Count),
		slog.Int("entry.id", int(j.id)))
	return j.id, nil
}

// Pending returns the number of reminders with runs left.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cancel drops a reminder before its last run.
func (s *Scheduler) Cancel(id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
}

func (s *Scheduler) run(j *job) {
	s.mu.Lock()
	if _, ok := s.entries[j.id]; !ok {
		s.mu.Unlock()
		return
	}
	j.runs++
	if j.runs >= j.reminder.Count {
		s.remove(j.id)
	}
	ctx := s.ctx
	s.mu.Unlock()

	if err := s.send(ctx, j.reminder); err != nil {
		slog.Error("kasugai: error while sending a reminder",
			slog.Any("user.id", j.reminder.UserID),
			slog.Int("run", j.runs),
			tint.Err(err))
	}
}

func (s *Scheduler) remove(id cron.EntryID) {
	s.cron.Remove(id)
	delete(s.entries, id)
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop stops the cron loop and waits for running sends to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	doneCtx := s.cron.Stop()
	defer s.cancel()
	select {
	case <-doneCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("kasugai: cron "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("kasugai: cron "+msg, append(keysAndValues, tint.Err(err))...)
}
