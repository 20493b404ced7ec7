package queue

import (
	"encoding/json"

	"github.com/wenji-next/internal/constants"
	"github.com/wenji-next/internal/service"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 单条通知投递任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
	// TaskNotificationBroadcast 系统广播任务
	TaskNotificationBroadcast = constants.TaskNotificationBroadcast
	// TaskPostSweepScheduled 定时文章发布扫描任务
	TaskPostSweepScheduled = constants.TaskPostSweepScheduled
)

// NotificationDispatchPayload 通知投递任务载荷
type NotificationDispatchPayload struct {
	Event service.Event `json:"event"`
}

// NotificationBroadcastPayload 系统广播任务载荷
type NotificationBroadcastPayload struct {
	ActorID      uint   `json:"actor_id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	RecipientIDs []uint `json:"recipient_ids"`
}

// PostSweepPayload 发布扫描任务载荷（无参数，保留结构便于扩展）
type PostSweepPayload struct{}

// NewNotificationDispatchTask 创建通知投递任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// NewNotificationBroadcastTask 创建系统广播任务
func NewNotificationBroadcastTask(payload NotificationBroadcastPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationBroadcast, body), nil
}

// NewPostSweepTask 创建发布扫描任务
func NewPostSweepTask() (*asynq.Task, error) {
	body, err := json.Marshal(PostSweepPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPostSweepScheduled, body), nil
}
