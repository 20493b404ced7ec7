package worker

import (
	"context"
	"errors"
	"time"

	"github.com/wenji-next/internal/config"
	"github.com/wenji-next/internal/logger"
	"github.com/wenji-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	postSweepInterval = time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.PostService != nil {
		go s.runPostSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

// runPostSweepLoop 周期扫描到点的定时文章。
// 扫描本身是幂等的条件更新，与队列里的按需扫描任务并发执行也安全。
func (s *Service) runPostSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PostService == nil {
		return
	}
	runOnce := func() {
		count, err := s.consumer.PostService.SweepScheduled()
		if err != nil {
			logger.Warnw("worker_post_sweep_loop_failed", "error", err)
			return
		}
		if count > 0 {
			logger.Infow("worker_post_sweep_loop_published", "count", count)
		}
	}
	runOnce()

	ticker := time.NewTicker(postSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
