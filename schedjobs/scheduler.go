package schedjobs

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/svc"
)

// Scheduler checks its cron jobs once a minute and runs the matching ones concurrently.
type Scheduler struct {
	Ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex // guards state and cronJobs
	state  int
	done   chan error
	wg     sync.WaitGroup
	Logger *zap.Logger
	Tick   time.Duration // check interval, one minute unless set before Start

	cronJobs []*CronJob
}

var _ svc.Service = (*Scheduler)(nil)

func NewScheduler(parentCtx context.Context, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(parentCtx)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Ctx:    ctx,
		cancel: cancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Logger: logger.Named("jobs"),
		Tick:   time.Minute,
	}
}

func (s *Scheduler) Name() string {
	return "JobScheduler"
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	s.state = svc.StateRUNNING
	go s.loop()
	s.Logger.Info("job scheduler started", zap.Int("cron_jobs", len(s.cronJobs)))
	return nil
}

func (s *Scheduler) Stop() {
	s.cancel()
}

func (s *Scheduler) Done() <-chan error {
	return s.done
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.Tick)
	defer ticker.Stop()
	last := time.Time{}
	for {
		select {
		case now := <-ticker.C:
			// one run per wall-clock minute even when Tick is shorter
			minute := now.Truncate(time.Minute)
			if minute.Equal(last) {
				continue
			}
			last = minute
			s.RunDue(now)
		case <-s.Ctx.Done():
			s.wg.Wait() // wait for running tasks
			s.mu.Lock()
			s.state = svc.StateSTOPPED
			s.mu.Unlock()
			s.Logger.Info("job scheduler stopped")
			s.done <- nil
			return
		}
	}
}

// RunDue starts every job matching now and returns how many were started.
func (s *Scheduler) RunDue(now time.Time) int {
	n := 0
	for _, job := range s.CronJobs() {
		if job.Matches(now) {
			s.run(job)
			n++
		}
	}
	return n
}

func (s *Scheduler) run(job *CronJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("job %s panicked: %v", job.ID, r)
				}
			}()
			err = job.Task(s.Ctx)
		}()
		if err != nil {
			s.Logger.Warn("job failed", zap.String("job", job.ID), zap.Error(err))
		} else {
			s.Logger.Debug("job finished", zap.String("job", job.ID))
		}
		if job.OnFinished != nil {
			job.OnFinished(err)
		}
	}()
}

// Wait blocks until the running jobs finish.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) AddCronJob(job *CronJob) {
	s.mu.Lock()
	s.cronJobs = append(s.cronJobs, job)
	s.mu.Unlock()
	s.Logger.Debug("cron job added", zap.String("job", job.ID))
}

// CronJobs returns a copy of the registered jobs.
func (s *Scheduler) CronJobs() []*CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cronJobs)
}

// DeleteCronJob removes a cron job by its ID
func (s *Scheduler) DeleteCronJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cronJobs = slices.DeleteFunc(s.cronJobs, func(job *CronJob) bool {
		return job.ID == jobID
	})
}
