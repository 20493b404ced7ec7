package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wenji-next/internal/logger"
	"github.com/wenji-next/internal/provider"
	"github.com/wenji-next/internal/queue"
	"github.com/wenji-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
	mux.HandleFunc(queue.TaskNotificationBroadcast, c.handleNotificationBroadcast)
	mux.HandleFunc(queue.TaskPostSweepScheduled, c.handlePostSweep)
}

func (c *Consumer) handleNotificationDispatch(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.Event.RecipientID == 0 {
		logger.Debugw("worker_notification_dispatch_skip_invalid_payload", "type", payload.Event.Type)
		return nil
	}
	if err := c.NotificationService.Dispatch(payload.Event); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			// 发送者已不存在，任务作废
			logger.Debugw("worker_notification_dispatch_skip_sender_not_found",
				"actor_id", payload.Event.ActorID, "type", payload.Event.Type)
			return nil
		case errors.Is(err, service.ErrInvalidArgument):
			logger.Debugw("worker_notification_dispatch_skip_invalid_type", "type", payload.Event.Type)
			return nil
		default:
			logger.Warnw("worker_notification_dispatch_failed",
				"type", payload.Event.Type, "recipient_id", payload.Event.RecipientID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleNotificationBroadcast(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_broadcast_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationBroadcastPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_broadcast_unmarshal_failed", "error", err)
		return err
	}
	actor := service.Actor{ID: payload.ActorID, IsAdmin: true}
	count, err := c.NotificationService.Broadcast(actor, payload.Title, payload.Content, payload.RecipientIDs)
	if err != nil {
		logger.Warnw("worker_notification_broadcast_failed", "title", payload.Title, "error", err)
		return err
	}
	logger.Infow("worker_notification_broadcast_done", "title", payload.Title, "count", count)
	return nil
}

func (c *Consumer) handlePostSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_post_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	count, err := c.PostService.SweepScheduled()
	if err != nil {
		logger.Warnw("worker_post_sweep_failed", "error", err)
		return err
	}
	if count > 0 {
		logger.Infow("worker_post_sweep_published", "count", count)
	}
	return nil
}
