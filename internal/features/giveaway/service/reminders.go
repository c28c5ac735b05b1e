package service

import (
	"sync"
	"time"
)

// reminderTier is one of the fixed lead-time announcements before a
// giveaway's end.
type reminderTier struct {
	key    string
	offset time.Duration
	label  string // подставляется в текст напоминания
}

var reminderTiers = []reminderTier{
	{key: "3d", offset: 72 * time.Hour, label: "через 3 дня"},
	{key: "1d", offset: 24 * time.Hour, label: "завтра"},
	{key: "3h", offset: 3 * time.Hour, label: "через 3 часа"},
}

type reminderState struct {
	enabled bool
	fired   map[string]bool
}

// ReminderStore holds per-giveaway reminder flags. The lifecycle
// scheduler is the sole owner and mutator; the state is process-local
// and rebuilt from active giveaways at startup, all tiers unfired.
type ReminderStore struct {
	mu     sync.Mutex
	states map[string]*reminderState
}

func NewReminderStore() *ReminderStore {
	return &ReminderStore{states: make(map[string]*reminderState)}
}

// Init registers a giveaway with reminders enabled and no tier fired.
// Existing state is kept, so re-scheduling does not reset fired tiers.
func (s *ReminderStore) Init(giveawayID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[giveawayID]; !ok {
		s.states[giveawayID] = &reminderState{enabled: true, fired: make(map[string]bool)}
	}
}

// Enabled reports whether reminders are on for the giveaway.
func (s *ReminderStore) Enabled(giveawayID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[giveawayID]
	return ok && state.enabled
}

// MarkFired records a tier as fired and reports whether this call was
// the first to do so. The second concurrent fire of the same tier loses.
func (s *ReminderStore) MarkFired(giveawayID, tier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[giveawayID]
	if !ok || !state.enabled || state.fired[tier] {
		return false
	}
	state.fired[tier] = true
	return true
}

// Fired reports whether a tier has already fired.
func (s *ReminderStore) Fired(giveawayID, tier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[giveawayID]
	return ok && state.fired[tier]
}

// Disable turns reminders off for the giveaway, keeping the entry so a
// later re-schedule does not silently re-enable them.
func (s *ReminderStore) Disable(giveawayID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.states[giveawayID]; ok {
		state.enabled = false
	} else {
		s.states[giveawayID] = &reminderState{enabled: false, fired: make(map[string]bool)}
	}
}

// Drop discards the giveaway's state entirely (finish or cancellation).
func (s *ReminderStore) Drop(giveawayID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, giveawayID)
}
