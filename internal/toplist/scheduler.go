package toplist

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cinefile/internal/logging"
	"cinefile/internal/store"
)

// Scheduler recomputes the top list after movie changes. Triggers arriving
// within the debounce window coalesce into one recompute.
type Scheduler struct {
	store  *store.Store
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	closed  bool
	// running counts claimed recomputes; idle is signalled on mu when it
	// drops to zero.
	running int
	idle    *sync.Cond

	runMu       sync.Mutex
	runs        atomic.Int64
	unsubscribe func()
}

// NewScheduler subscribes to movie changes on st.
func NewScheduler(st *store.Store, delay time.Duration, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		store:  st,
		delay:  delay,
		logger: logging.NewComponentLogger(logger, "toplist"),
	}
	s.idle = sync.NewCond(&s.mu)
	s.unsubscribe = st.Subscribe(func(change store.Change) {
		if change.Kinds&store.KindMovies != 0 {
			s.Trigger()
		}
	})
	return s
}

// Trigger schedules a recompute after the debounce window, restarting the
// window if one is already pending.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// Flush runs a pending recompute now and waits for any recompute a timer
// already started.
func (s *Scheduler) Flush(ctx context.Context) error {
	var err error
	if s.takePending() {
		err = s.recompute(ctx)
		s.finish()
	}
	s.wait()
	return err
}

// Close stops the timer and the subscription. A pending recompute is
// dropped; call Flush first to keep it.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.unsubscribe()
	s.wait()
}

// Runs reports how many recomputes have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// takePending claims the pending recompute. A true result registers an
// in-flight run the caller must mark done.
func (s *Scheduler) takePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pending := s.pending
	s.pending = false
	if pending {
		s.running++
	}
	return pending
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running--
	if s.running == 0 {
		s.idle.Broadcast()
	}
}

func (s *Scheduler) wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.running > 0 {
		s.idle.Wait()
	}
}

func (s *Scheduler) fire() {
	if !s.takePending() {
		return
	}
	defer s.finish()
	if err := s.recompute(context.Background()); err != nil {
		logging.WarnWithContext(s.logger, "top list recompute failed", "toplist_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "top list is stale until the next rating change"),
		)
	}
}

func (s *Scheduler) recompute(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	list, err := Recompute(ctx, s.store)
	if err != nil {
		return err
	}
	s.runs.Add(1)
	if list != nil {
		s.logger.Debug("top list recomputed", logging.Int("items", list.ItemCount))
	}
	return nil
}
