package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mergebox/backend/service/merge"
)

type Scheduler struct {
	runner   *merge.Runner
	interval time.Duration
	log      *zap.Logger
}

func NewScheduler(runner *merge.Runner, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		log:      log,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.runner == nil {
		return
	}
	go s.runWithTicker(ctx, "merge sync", func(ctx context.Context) {
		if _, err := s.runner.Run(ctx); err != nil {
			s.log.Warn("scheduled merge failed", zap.Error(err))
		}
	})
}

func (s *Scheduler) runWithTicker(ctx context.Context, name string, fn func(context.Context)) {
	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	// 启动后先跑一次，避免“等待一个周期才生效”。
	s.safeRun(ctx, name, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeRun(ctx, name, fn)
		}
	}
}

func (s *Scheduler) safeRun(ctx context.Context, name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task panicked",
				zap.String("task", name),
				zap.Any("panic", r))
		}
	}()
	fn(ctx)
}
