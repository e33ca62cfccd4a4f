// Package scheduler runs snapshot sets on cron schedules. Schedules are
// persisted as YAML in the state directory so they survive restarts.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"snaplvd/internal/engine"
	"snaplvd/internal/history"
	"snaplvd/internal/snapset"
)

// Schedule binds a snapshot set to a cron expression.
type Schedule struct {
	ID        string      `json:"id" yaml:"id"`
	Cron      string      `json:"cron" yaml:"cron"`
	Enabled   bool        `json:"enabled" yaml:"enabled"`
	Set       snapset.Set `json:"set" yaml:"set"`
	CreatedAt time.Time   `json:"created_at" yaml:"created_at"`
	LastRun   time.Time   `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	LastCode  int         `json:"last_return_code" yaml:"last_return_code"`
}

// Runner is the operation surface the scheduler drives on each tick.
type Runner interface {
	Run(ctx context.Context, action string, set snapset.Set, flags engine.Flags) engine.Result
}

type Scheduler struct {
	log         zerolog.Logger
	stateFile   string
	runner      Runner
	store       *history.Store
	cron        *cron.Cron
	schedules   map[string]*Schedule
	cronEntries map[string]cron.EntryID
	mu          sync.RWMutex
}

// New creates a scheduler persisting to stateFile. store may be nil when
// operation history is disabled.
func New(log zerolog.Logger, stateFile string, runner Runner, store *history.Store) *Scheduler {
	return &Scheduler{
		log:         log.With().Str("component", "scheduler").Logger(),
		stateFile:   stateFile,
		runner:      runner,
		store:       store,
		cron:        cron.New(),
		schedules:   make(map[string]*Schedule),
		cronEntries: make(map[string]cron.EntryID),
	}
}

// Start loads persisted schedules and begins firing them.
func (s *Scheduler) Start() error {
	if err := s.loadState(); err != nil {
		s.log.Warn().Err(err).Msg("failed to load scheduler state")
	}
	s.cron.Start()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, schedule := range s.schedules {
		if schedule.Enabled {
			if err := s.scheduleJob(schedule); err != nil {
				s.log.Error().Err(err).Str("schedule", schedule.ID).Msg("failed to schedule job")
			}
		}
	}
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Add registers and persists a new schedule. The cron expression is
// validated before anything is stored.
func (s *Scheduler) Add(cronExpr string, set snapset.Set, enabled bool) (*Schedule, error) {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	schedule := &Schedule{
		ID:        uuid.New().String(),
		Cron:      cronExpr,
		Enabled:   enabled,
		Set:       set,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[schedule.ID] = schedule
	if enabled {
		if err := s.scheduleJob(schedule); err != nil {
			delete(s.schedules, schedule.ID)
			return nil, err
		}
	}
	if err := s.saveState(); err != nil {
		return nil, err
	}
	s.log.Info().Str("schedule", schedule.ID).Str("cron", cronExpr).
		Str("set", set.Name).Msg("schedule added")
	return schedule, nil
}

// Remove deletes a schedule. Removing an unknown id is an error.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, okFound := s.schedules[id]
	if !okFound {
		return fmt.Errorf("schedule not found: %s", id)
	}
	if entryID, okEntry := s.cronEntries[id]; okEntry {
		s.cron.Remove(entryID)
		delete(s.cronEntries, id)
	}
	delete(s.schedules, id)
	if err := s.saveState(); err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule.ID).Msg("schedule removed")
	return nil
}

// Get returns one schedule by id.
func (s *Scheduler) Get(id string) (*Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedule, okFound := s.schedules[id]
	if !okFound {
		return nil, false
	}
	copied := *schedule
	return &copied, true
}

// List returns all schedules ordered by creation time.
func (s *Scheduler) List() []Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Schedule, 0, len(s.schedules))
	for _, schedule := range s.schedules {
		out = append(out, *schedule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// scheduleJob registers the cron entry for a schedule. Caller holds mu.
func (s *Scheduler) scheduleJob(schedule *Schedule) error {
	id := schedule.ID
	entryID, err := s.cron.AddFunc(schedule.Cron, func() { s.fire(id) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", id, err)
	}
	s.cronEntries[id] = entryID
	return nil
}

// fire runs one scheduled snapshot and records the outcome.
func (s *Scheduler) fire(id string) {
	s.mu.RLock()
	schedule, okFound := s.schedules[id]
	var set snapset.Set
	if okFound {
		set = schedule.Set
	}
	s.mu.RUnlock()
	if !okFound {
		return
	}

	started := time.Now()
	res := s.runner.Run(context.Background(), engine.ActionSnapshot, set, engine.Flags{})
	s.log.Info().Str("schedule", id).Str("set", set.Name).
		Int("return_code", int(res.Code)).Bool("changed", res.Changed).
		Msg("scheduled snapshot finished")

	s.mu.Lock()
	if schedule, still := s.schedules[id]; still {
		schedule.LastRun = started
		schedule.LastCode = int(res.Code)
		if err := s.saveState(); err != nil {
			s.log.Warn().Err(err).Msg("failed to save scheduler state")
		}
	}
	s.mu.Unlock()

	if s.store != nil {
		_, err := s.store.Record(history.Entry{
			StartedAt:  started,
			Action:     engine.ActionSnapshot,
			SetName:    set.Name,
			ReturnCode: int(res.Code),
			Errors:     res.Message,
			Changed:    res.Changed,
			Duration:   time.Since(started),
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to record scheduled run")
		}
	}
}

type persistedState struct {
	Schedules []Schedule `yaml:"schedules"`
}

// loadState reads schedules from disk. A missing file is a fresh start.
func (s *Scheduler) loadState() error {
	data, err := os.ReadFile(s.stateFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var state persistedState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse scheduler state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range state.Schedules {
		schedule := state.Schedules[i]
		s.schedules[schedule.ID] = &schedule
	}
	return nil
}

// saveState writes schedules to disk. Caller holds mu.
func (s *Scheduler) saveState() error {
	state := persistedState{Schedules: make([]Schedule, 0, len(s.schedules))}
	for _, schedule := range s.schedules {
		state.Schedules = append(state.Schedules, *schedule)
	}
	sort.Slice(state.Schedules, func(i, j int) bool {
		return state.Schedules[i].ID < state.Schedules[j].ID
	})
	data, err := yaml.Marshal(&state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.stateFile), 0o755); err != nil {
		return err
	}
	tmp := s.stateFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.stateFile)
}
