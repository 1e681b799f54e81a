package notifications

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/DevS-25/Paperless/internal/documents"
)

// Sweeper periodically nudges approvers holding documents past the
// configured age. Reminders repeat every sweep until the holder acts.
type Sweeper struct {
	cron   *cron.Cron
	docs   documents.Repository
	svc    *Service
	maxAge time.Duration
	logger *zap.Logger
}

func NewSweeper(docs documents.Repository, svc *Service, maxAge time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:   cron.New(),
		docs:   docs,
		svc:    svc,
		maxAge: maxAge,
		logger: logger,
	}
}

// Start schedules the sweep. The schedule is a standard cron expression,
// "0 9 * * *" for a daily 09:00 run.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reminder sweeper started", zap.String("schedule", schedule))
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stale, err := s.docs.ListPendingOlderThan(ctx, s.maxAge)
	if err != nil {
		s.logger.Error("reminder sweep failed", zap.Error(err))
		return
	}
	for i := range stale {
		doc := &stale[i]
		if doc.HolderUserID == nil {
			continue
		}
		s.svc.Remind(*doc.HolderUserID, doc, time.Since(doc.UpdatedAt))
	}
	if len(stale) > 0 {
		s.logger.Info("reminders sent", zap.Int("count", len(stale)))
	}
}
