package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service fires one-shot and recurring callbacks at absolute times.
// Scheduling the same key twice replaces the previous job atomically, so
// there is never more than one live job per key. Callbacks run on their
// own goroutine, never the caller's; a panic inside a callback is
// recovered and logged without disturbing other jobs.
type Service struct {
	mu      sync.Mutex
	jobs    map[string]*job
	now     func() time.Time
	stopped bool
	logger  zerolog.Logger
}

type job struct {
	name    string
	nextRun time.Time
	every   time.Duration // 0 for one-shot jobs
	timer   *time.Timer
}

// JobInfo describes one pending job for observability.
type JobInfo struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run_time"`
}

// Status is a point-in-time snapshot of the service.
type Status struct {
	Running   bool      `json:"running"`
	JobsCount int       `json:"jobs_count"`
	Jobs      []JobInfo `json:"jobs"`
}

func New() *Service {
	return &Service{
		jobs:   make(map[string]*job),
		now:    time.Now,
		logger: log.With().Str("component", "scheduler").Logger(),
	}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Schedule registers a one-shot callback at the absolute time when.
// A job already registered under key is cancelled and replaced. Times in
// the past fire immediately.
func (s *Service) Schedule(key, name string, when time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.jobs[key]; ok {
		existing.timer.Stop()
		s.logger.Debug().Str("job", key).Msg("Replacing scheduled job")
	}

	delay := when.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	j := &job{name: name, nextRun: when}
	j.timer = time.AfterFunc(delay, func() {
		s.fire(key, j, fn)
	})
	s.jobs[key] = j

	s.logger.Info().
		Str("job", key).
		Time("next_run", when).
		Msg("Job scheduled")
}

// ScheduleEvery registers a recurring callback with the given interval,
// first firing one interval from now. Replace-by-key semantics match
// Schedule.
func (s *Service) ScheduleEvery(key, name string, every time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.jobs[key]; ok {
		existing.timer.Stop()
	}

	j := &job{name: name, nextRun: s.now().Add(every), every: every}
	j.timer = time.AfterFunc(every, func() {
		s.fire(key, j, fn)
	})
	s.jobs[key] = j

	s.logger.Info().
		Str("job", key).
		Dur("every", every).
		Msg("Recurring job scheduled")
}

// Cancel removes a pending job. No-op when the key is unknown.
func (s *Service) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[key]; ok {
		j.timer.Stop()
		delete(s.jobs, key)
		s.logger.Info().Str("job", key).Msg("Job cancelled")
	}
}

// Status reports the pending jobs sorted by key.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for key, j := range s.jobs {
		infos = append(infos, JobInfo{ID: key, Name: j.name, NextRun: j.nextRun})
	}
	sort.Slice(infos, func(i, k int) bool { return infos[i].ID < infos[k].ID })

	return Status{
		Running:   !s.stopped,
		JobsCount: len(infos),
		Jobs:      infos,
	}
}

// Shutdown stops all pending timers. Jobs already firing run to
// completion; nothing new fires afterwards.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, j := range s.jobs {
		j.timer.Stop()
		delete(s.jobs, key)
	}
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Service) fire(key string, j *job, fn func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	// Задание могли отменить или заменить, пока таймер добирался до
	// блокировки - тогда колбэк не выполняется
	current, ok := s.jobs[key]
	if !ok || current != j {
		s.mu.Unlock()
		return
	}
	if j.every > 0 {
		j.nextRun = s.now().Add(j.every)
		j.timer.Reset(j.every)
	} else {
		delete(s.jobs, key)
	}
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job", key).
				Interface("panic", r).
				Msg("Job callback panicked")
		}
	}()
	fn()
}
