// Package pruner defines the background retention sweeper that reclaims
// resolved slash proposals once their retention window elapsed.
package pruner

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/restakelabs/resolver/db"
	"github.com/restakelabs/resolver/shared/params"
	"github.com/restakelabs/resolver/shared/slotutil"
)

var log = logrus.WithField("prefix", "pruner")

// Config options for the pruner service.
type Config struct {
	Database    db.Database
	GenesisTime time.Time

	// MaxRoutines fails the health check when the process exceeds this many
	// goroutines. Zero disables the check.
	MaxRoutines int
}

// Service walks the retention index on a slot ticker and prunes every
// terminal proposal whose purge slot has passed.
type Service struct {
	ctx         context.Context
	cancel      context.CancelFunc
	db          db.Database
	genesisTime time.Time
	maxRoutines int
	ticker      slotutil.Ticker
	failStatus  error
}

// NewService instantiates a new pruner from configuration values.
func NewService(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		ctx:         ctx,
		cancel:      cancel,
		db:          cfg.Database,
		genesisTime: cfg.GenesisTime,
		maxRoutines: cfg.MaxRoutines,
	}
}

// Start the slot ticker and the pruning loop.
func (s *Service) Start() {
	secondsPerSlot := params.ResolverConfig().SecondsPerSlot
	s.ticker = slotutil.NewSlotTicker(s.genesisTime, secondsPerSlot)
	log.WithField("genesisTime", s.genesisTime).Info("Starting retention pruner")
	go s.run()
}

func (s *Service) run() {
	interval := params.ResolverConfig().PruneSlotInterval
	for {
		select {
		case <-s.ctx.Done():
			return
		case slot := <-s.ticker.C():
			if interval == 0 || uint64(slot)%interval != 0 {
				continue
			}
			pruned, err := s.db.PruneResolvedProposals(s.ctx, slot)
			if err != nil {
				log.WithError(err).Error("Could not prune resolved proposals")
				s.failStatus = err
				continue
			}
			if pruned > 0 {
				log.WithFields(logrus.Fields{
					"slot":   slot,
					"pruned": pruned,
				}).Info("Pruned resolved slash proposals")
			}
		}
	}
}

// Stop the pruning loop.
func (s *Service) Stop() error {
	s.cancel()
	if s.ticker != nil {
		s.ticker.Done()
	}
	return nil
}

// Status fails when the process is leaking goroutines or the last pruning
// pass errored.
func (s *Service) Status() error {
	if s.maxRoutines > 0 && runtime.NumGoroutine() > s.maxRoutines {
		return fmt.Errorf("too many goroutines (%d)", runtime.NumGoroutine())
	}
	return s.failStatus
}
