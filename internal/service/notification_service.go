package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wenji-next/internal/cache"
	"github.com/wenji-next/internal/constants"
	"github.com/wenji-next/internal/logger"
	"github.com/wenji-next/internal/models"
	"github.com/wenji-next/internal/repository"
)

// 未读计数缓存时长
const unreadCountTTL = 5 * time.Minute

// DispatchEnqueuer 通知投递任务入队接口，由队列客户端实现。
// 为空或入队失败时服务退化为同步投递。
type DispatchEnqueuer interface {
	EnqueueDispatch(event Event) error
}

// NotificationService 通知业务服务，同时实现 Notifier 作为事件消费边界
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	enqueuer DispatchEnqueuer

	nowFunc func() time.Time
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	repo repository.NotificationRepository,
	userRepo repository.UserRepository,
	enqueuer DispatchEnqueuer,
) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		enqueuer: enqueuer,
		nowFunc:  time.Now,
	}
}

// Notify 事件消费入口，尽力而为：优先异步入队，
// 队列不可用时就地投递；任何失败只记日志，绝不上抛。
func (s *NotificationService) Notify(events ...Event) {
	for _, event := range events {
		if s.enqueuer != nil {
			if err := s.enqueuer.EnqueueDispatch(event); err == nil {
				continue
			} else {
				logger.Warnw("通知任务入队失败，改为同步投递", "type", event.Type, "err", err)
			}
		}
		if err := s.Dispatch(event); err != nil {
			logger.Errorw("通知投递失败", "type", event.Type, "recipient_id", event.RecipientID, "err", err)
		}
	}
}

// Dispatch 投递单条通知：解析发送者展示信息并落库。
// 自己触发给自己的事件直接丢弃。
func (s *NotificationService) Dispatch(event Event) error {
	if event.ActorID == event.RecipientID {
		return nil
	}
	sender, err := s.userRepo.GetByID(event.ActorID)
	if err != nil {
		return wrapInternal(err)
	}
	if sender == nil {
		return ErrNotFound
	}

	notification := models.Notification{
		RecipientID: event.RecipientID,
		SenderID:    &sender.ID,
		Type:        event.Type,
	}
	switch event.Type {
	case constants.NotificationTypeFollow:
		notification.Title = "新粉丝"
		notification.Content = fmt.Sprintf("%s 关注了你", sender.DisplayName)
	case constants.NotificationTypeComment:
		notification.Title = "新评论"
		notification.Content = fmt.Sprintf("%s 评论了你的文章", sender.DisplayName)
	case constants.NotificationTypeReply:
		notification.Title = "新回复"
		notification.Content = fmt.Sprintf("%s 回复了你的评论", sender.DisplayName)
	case constants.NotificationTypeLikePost:
		notification.Title = "收到点赞"
		notification.Content = fmt.Sprintf("%s 赞了你的文章", sender.DisplayName)
	case constants.NotificationTypeLikeComment:
		notification.Title = "收到点赞"
		notification.Content = fmt.Sprintf("%s 赞了你的评论", sender.DisplayName)
	default:
		return ErrInvalidArgument
	}
	if event.PostID > 0 {
		postID := event.PostID
		notification.PostID = &postID
		notification.Link = fmt.Sprintf("/posts/%d", postID)
	}
	if event.CommentID > 0 {
		commentID := event.CommentID
		notification.CommentID = &commentID
	}

	if err := s.repo.Create(&notification); err != nil {
		return wrapInternal(err)
	}
	s.invalidateUnread(event.RecipientID)
	return nil
}

// Broadcast 系统广播，管理员专用。
// recipientIDs 为空时发给全量用户，批量插入，返回通知条数。
func (s *NotificationService) Broadcast(actor Actor, title, content string, recipientIDs []uint) (int, error) {
	if !actor.IsAdmin {
		return 0, ErrForbidden
	}

	ids := recipientIDs
	if len(ids) == 0 {
		all, err := s.userRepo.ListIDs()
		if err != nil {
			return 0, wrapInternal(err)
		}
		ids = all
	} else {
		users, err := s.userRepo.GetByIDs(ids)
		if err != nil {
			return 0, wrapInternal(err)
		}
		if len(users) != len(ids) {
			return 0, ErrNotFound
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	notifications := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		notifications = append(notifications, models.Notification{
			RecipientID: id,
			Type:        constants.NotificationTypeSystem,
			Title:       title,
			Content:     content,
		})
	}
	if err := s.repo.CreateBatch(notifications, constants.BroadcastInsertBatchSize); err != nil {
		return 0, wrapInternal(err)
	}
	for _, id := range ids {
		s.invalidateUnread(id)
	}
	return len(notifications), nil
}

// List 通知列表
func (s *NotificationService) List(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	notifications, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return notifications, total, nil
}

// UnreadCount 未读通知数，带短时缓存
func (s *NotificationService) UnreadCount(recipientID uint) (int64, error) {
	key := unreadCountKey(recipientID)
	var cached int64
	if hit, err := cache.GetJSON(context.Background(), key, &cached); err == nil && hit {
		return cached, nil
	}

	count, err := s.repo.CountUnread(recipientID)
	if err != nil {
		return 0, wrapInternal(err)
	}
	if err := cache.SetJSON(context.Background(), key, count, unreadCountTTL); err != nil {
		logger.Warnw("未读计数缓存写入失败", "recipient_id", recipientID, "err", err)
	}
	return count, nil
}

// MarkRead 单条置为已读，只能操作属于自己的通知，重复调用为空操作
func (s *NotificationService) MarkRead(id, recipientID uint) (*models.Notification, error) {
	notification, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if notification == nil || notification.RecipientID != recipientID {
		return nil, ErrNotFound
	}
	if notification.IsRead {
		return notification, nil
	}

	now := s.nowFunc()
	notification.IsRead = true
	notification.ReadAt = &now
	if err := s.repo.Update(notification); err != nil {
		return nil, wrapInternal(err)
	}
	s.invalidateUnread(recipientID)
	return notification, nil
}

// MarkAllRead 批量置为已读，ids 非空时只处理该子集，返回影响条数
func (s *NotificationService) MarkAllRead(recipientID uint, ids []uint) (int64, error) {
	count, err := s.repo.MarkAllRead(recipientID, ids, s.nowFunc())
	if err != nil {
		return 0, wrapInternal(err)
	}
	if count > 0 {
		s.invalidateUnread(recipientID)
	}
	return count, nil
}

// Delete 删除单条通知，只能删除属于自己的
func (s *NotificationService) Delete(id, recipientID uint) error {
	rows, err := s.repo.DeleteByID(id, recipientID)
	if err != nil {
		return wrapInternal(err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	s.invalidateUnread(recipientID)
	return nil
}

// BulkDelete 批量删除：给了 ids 按子集删，否则 deleteAllRead 为真时
// 删全部已读；两者都未指定时是空操作，返回 0。
func (s *NotificationService) BulkDelete(recipientID uint, ids []uint, deleteAllRead bool) (int64, error) {
	var (
		count int64
		err   error
	)
	switch {
	case len(ids) > 0:
		count, err = s.repo.DeleteByIDs(recipientID, ids)
	case deleteAllRead:
		count, err = s.repo.DeleteRead(recipientID)
	default:
		return 0, nil
	}
	if err != nil {
		return 0, wrapInternal(err)
	}
	if count > 0 {
		s.invalidateUnread(recipientID)
	}
	return count, nil
}

// invalidateUnread 失效未读计数缓存，尽力而为
func (s *NotificationService) invalidateUnread(recipientID uint) {
	if err := cache.Del(context.Background(), unreadCountKey(recipientID)); err != nil {
		logger.Warnw("未读计数缓存失效失败", "recipient_id", recipientID, "err", err)
	}
}

func unreadCountKey(recipientID uint) string {
	return fmt.Sprintf("notification:unread:%d", recipientID)
}
