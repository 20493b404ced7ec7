package app

import (
	"errors"

	"github.com/wenji-next/internal/config"
	"github.com/wenji-next/internal/provider"
	"github.com/wenji-next/internal/worker"
)

// BuildRunner 构建服务运行器。
// 请求层由外部网关承接，本进程只承载队列消费与周期任务。
func BuildRunner(cfg *config.Config) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service
	if cfg.Queue.Enabled {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, nil, err
		}
		services = append(services, workerService)
	}
	if len(services) == 0 {
		return nil, nil, errors.New("no services initialized (queue disabled)")
	}

	return NewRunner(services...), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, _, err := BuildRunner(opts.Config)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "queue_enabled", opts.Config.Queue.Enabled)
	return RunWithOptions(runner, opts)
}
