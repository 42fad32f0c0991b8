package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"learnhub/internal/queue"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task) (string, error)
}

// Scheduler enqueues periodic housekeeping for the worker.
type Scheduler struct {
	cron          *cron.Cron
	queue         Enqueuer
	purgeSchedule string
	log           zerolog.Logger
}

func NewScheduler(q Enqueuer, purgeSchedule string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:          c,
		queue:         q,
		purgeSchedule: purgeSchedule,
		log:           log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.purgeSchedule, s.enqueuePurge); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueuePurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task, err := queue.NewTask(queue.TaskPurgeExpired, struct{}{})
	if err != nil {
		s.log.Error().Err(err).Msg("build purge task failed")
		return
	}
	if _, err := s.queue.Enqueue(ctx, task); err != nil {
		s.log.Error().Err(err).Msg("enqueue purge failed")
	}
}
