// Package schedule runs the post workflow on cron schedules.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

var ErrInvalidEntry = errors.New("invalid schedule entry")

// RunFunc starts one workflow run.
type RunFunc func(ctx context.Context, niche, userID string) error

// Entry schedules runs for one niche and user.
type Entry struct {
	Cron   string `json:"cron"    yaml:"cron"`
	Niche  string `json:"niche"   yaml:"niche"`
	UserID string `json:"user_id" yaml:"user_id"`
}

// ParseEntry reads "<cron>;<niche>;<user_id>", for example "0 9 * * 1-5;fitness;u1".
// Descriptors such as "@daily" are accepted in the cron part.
func ParseEntry(raw string) (Entry, error) {
	parts := strings.Split(raw, ";")
	if len(parts) != 3 {
		return Entry{}, fmt.Errorf("%w: %q: want <cron>;<niche>;<user_id>", ErrInvalidEntry, raw)
	}

	entry := Entry{
		Cron:   strings.TrimSpace(parts[0]),
		Niche:  strings.TrimSpace(parts[1]),
		UserID: strings.TrimSpace(parts[2]),
	}

	return entry, entry.Validate()
}

func (e Entry) Validate() error {
	if e.Cron == "" || e.Niche == "" || e.UserID == "" {
		return fmt.Errorf("%w: cron, niche and user id are required", ErrInvalidEntry)
	}

	if _, err := cron.ParseStandard(e.Cron); err != nil {
		return fmt.Errorf("%w: invalid cron expression: %w", ErrInvalidEntry, err)
	}

	return nil
}

// Scheduler fires a RunFunc for every entry. Overlapping firings of the same
// entry are skipped.
type Scheduler struct {
	cron   *cron.Cron
	run    RunFunc
	logger *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	entries map[cron.EntryID]Entry
}

func New(run RunFunc, logger *slog.Logger) *Scheduler {
	logger = logger.With("module", "scheduler")
	cronLogger := slogAdapter{logger: logger}

	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		run:     run,
		logger:  logger,
		ctx:     context.Background(),
		entries: make(map[cron.EntryID]Entry),
	}
}

func (s *Scheduler) Add(entry Entry) (cron.EntryID, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}

	var id cron.EntryID

	id, err := s.cron.AddFunc(entry.Cron, func() {
		s.fire(id, entry)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add cron job: %w", err)
	}

	s.mu.Lock()
	s.entries[id] = entry
	s.mu.Unlock()

	s.logger.Info("Scheduled workflow", "entry_id", id, "cron", entry.Cron, "niche", entry.Niche, "user_id", entry.UserID)

	return id, nil
}

// Start runs the cron loop until ctx is cancelled or Stop is called. Runs
// receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.logger.Info("Starting scheduler", "entries", len(s.cron.Entries()))
	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow fires entry id immediately, outside its schedule.
func (s *Scheduler) RunNow(id cron.EntryID) error {
	s.mu.Lock()
	entry, ok := s.entries[id]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: unknown entry %d", ErrInvalidEntry, id)
	}

	s.fire(id, entry)

	return nil
}

func (s *Scheduler) fire(id cron.EntryID, entry Entry) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	logger := s.logger.With("entry_id", id, "niche", entry.Niche, "user_id", entry.UserID)
	logger.InfoContext(ctx, "Cron job triggered")

	if err := s.run(ctx, entry.Niche, entry.UserID); err != nil {
		logger.ErrorContext(ctx, "Scheduled run failed", "error", err)
	}
}

type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
