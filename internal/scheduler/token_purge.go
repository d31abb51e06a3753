// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TokenPurger clears expired password reset tokens.
type TokenPurger interface {
	PurgeExpiredTokens() (int64, error)
}

// TokenPurgeScheduler periodically clears expired password reset
// tokens so stale tokens do not linger in the database.
type TokenPurgeScheduler struct {
	purger   TokenPurger
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isPurging  bool
	cancelFunc context.CancelFunc
}

// NewTokenPurgeScheduler creates a new scheduler instance. The schedule
// uses the standard 5-field cron format.
func NewTokenPurgeScheduler(purger TokenPurger, schedule string) *TokenPurgeScheduler {
	return &TokenPurgeScheduler{
		purger:   purger,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *TokenPurgeScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runPurge()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule token purge job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Token purge scheduler: started with schedule '%s'", s.schedule)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running purge to
// finish.
func (s *TokenPurgeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Token purge scheduler: stopped")
}

// RunNow triggers an immediate purge.
func (s *TokenPurgeScheduler) RunNow() {
	go s.runPurge()
}

// IsRunning returns whether the scheduler is active.
func (s *TokenPurgeScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next purge will occur.
func (s *TokenPurgeScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *TokenPurgeScheduler) runPurge() {
	s.mu.Lock()
	if s.isPurging {
		s.mu.Unlock()
		log.Printf("Token purge: skipped (already running)")
		return
	}
	s.isPurging = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isPurging = false
		s.mu.Unlock()
	}()

	cleared, err := s.purger.PurgeExpiredTokens()
	if err != nil {
		log.Printf("Token purge: failed: %v", err)
		return
	}
	if cleared > 0 {
		log.Printf("Token purge: cleared %d expired reset tokens", cleared)
	}
}
