package service

import (
	"errors"
	"testing"
	"time"

	"github.com/wenji-next/internal/constants"
	"github.com/wenji-next/internal/models"
	"github.com/wenji-next/internal/repository"
)

func TestDispatchSuppressesSelfNotification(t *testing.T) {
	env := newTestEnv(t, "notification_self")
	user := env.createUser(t, "solo", false)

	if err := env.notifications.Dispatch(Event{
		Type:        constants.NotificationTypeFollow,
		ActorID:     user.ID,
		RecipientID: user.ID,
	}); err != nil {
		t.Fatalf("self dispatch should be silently dropped, got %v", err)
	}

	var count int64
	env.db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no notification record, got %d", count)
	}
}

func TestDispatchPersistsRecord(t *testing.T) {
	env := newTestEnv(t, "notification_dispatch")
	sender := env.createUser(t, "sender", false)
	recipient := env.createUser(t, "recipient", false)

	if err := env.notifications.Dispatch(Event{
		Type:        constants.NotificationTypeLikePost,
		ActorID:     sender.ID,
		RecipientID: recipient.ID,
		PostID:      7,
	}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	notifications, total, err := env.notifications.List(repository.NotificationListFilter{
		RecipientID: recipient.ID,
		Page:        1,
		PageSize:    10,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got total=%d", total)
	}
	got := notifications[0]
	if got.Type != constants.NotificationTypeLikePost || got.SenderID == nil || *got.SenderID != sender.ID {
		t.Fatalf("unexpected notification: %+v", got)
	}
	if got.PostID == nil || *got.PostID != 7 || got.Link != "/posts/7" {
		t.Fatalf("expected post link, got %+v", got)
	}
	if got.IsRead {
		t.Fatalf("expected unread on creation")
	}
}

func TestNotifySwallowsFailures(t *testing.T) {
	env := newTestEnv(t, "notification_swallow")
	recipient := env.createUser(t, "recipient", false)

	// 发送者不存在，投递失败只会被记录，不会上抛
	env.notifications.Notify(Event{
		Type:        constants.NotificationTypeFollow,
		ActorID:     9999,
		RecipientID: recipient.ID,
	})

	count, err := env.notifications.UnreadCount(recipient.ID)
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}

func TestMarkReadOwnershipAndIdempotence(t *testing.T) {
	env := newTestEnv(t, "notification_mark_read")
	sender := env.createUser(t, "sender", false)
	recipient := env.createUser(t, "recipient", false)
	stranger := env.createUser(t, "stranger", false)

	if err := env.notifications.Dispatch(Event{
		Type:        constants.NotificationTypeFollow,
		ActorID:     sender.ID,
		RecipientID: recipient.ID,
	}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	var notification models.Notification
	if err := env.db.First(&notification).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}

	// 不属于自己的通知视为不存在
	if _, err := env.notifications.MarkRead(notification.ID, stranger.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	read, err := env.notifications.MarkRead(notification.ID, recipient.ID)
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if !read.IsRead || read.ReadAt == nil {
		t.Fatalf("expected read state, got %+v", read)
	}
	firstReadAt := *read.ReadAt

	// 已读再标记是空操作，readAt 不变
	again, err := env.notifications.MarkRead(notification.ID, recipient.ID)
	if err != nil {
		t.Fatalf("repeated mark read failed: %v", err)
	}
	if again.ReadAt == nil || again.ReadAt.Sub(firstReadAt) > time.Second {
		t.Fatalf("expected readAt unchanged, got %v", again.ReadAt)
	}
}

func TestMarkAllReadSubset(t *testing.T) {
	env := newTestEnv(t, "notification_mark_all")
	sender := env.createUser(t, "sender", false)
	recipient := env.createUser(t, "recipient", false)

	for i := 0; i < 3; i++ {
		if err := env.notifications.Dispatch(Event{
			Type:        constants.NotificationTypeFollow,
			ActorID:     sender.ID,
			RecipientID: recipient.ID,
		}); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
	}
	var notifications []models.Notification
	if err := env.db.Order("id ASC").Find(&notifications).Error; err != nil {
		t.Fatalf("load notifications failed: %v", err)
	}

	count, err := env.notifications.MarkAllRead(recipient.ID, []uint{notifications[0].ID})
	if err != nil {
		t.Fatalf("mark subset failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 affected, got %d", count)
	}

	count, err = env.notifications.MarkAllRead(recipient.ID, nil)
	if err != nil {
		t.Fatalf("mark all failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 affected, got %d", count)
	}

	unread, err := env.notifications.UnreadCount(recipient.ID)
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread, got %d", unread)
	}
}

func TestBulkDeleteSemantics(t *testing.T) {
	env := newTestEnv(t, "notification_bulk_delete")
	sender := env.createUser(t, "sender", false)
	recipient := env.createUser(t, "recipient", false)

	for i := 0; i < 3; i++ {
		if err := env.notifications.Dispatch(Event{
			Type:        constants.NotificationTypeFollow,
			ActorID:     sender.ID,
			RecipientID: recipient.ID,
		}); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
	}
	var notifications []models.Notification
	if err := env.db.Order("id ASC").Find(&notifications).Error; err != nil {
		t.Fatalf("load notifications failed: %v", err)
	}

	// 两者都未指定 → 空操作返回 0
	count, err := env.notifications.BulkDelete(recipient.ID, nil, false)
	if err != nil {
		t.Fatalf("bulk delete failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no-op, got %d", count)
	}

	// 按子集删
	count, err = env.notifications.BulkDelete(recipient.ID, []uint{notifications[0].ID}, false)
	if err != nil {
		t.Fatalf("bulk delete by ids failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deleted, got %d", count)
	}

	// 删全部已读：先读一条再删
	if _, err := env.notifications.MarkRead(notifications[1].ID, recipient.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	count, err = env.notifications.BulkDelete(recipient.ID, nil, true)
	if err != nil {
		t.Fatalf("delete read failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 read deleted, got %d", count)
	}

	var remaining int64
	env.db.Model(&models.Notification{}).Where("recipient_id = ?", recipient.ID).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("expected 1 remaining, got %d", remaining)
	}

	// 单条删除只能删自己的
	if err := env.notifications.Delete(notifications[2].ID, sender.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := env.notifications.Delete(notifications[2].ID, recipient.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestBroadcast(t *testing.T) {
	env := newTestEnv(t, "notification_broadcast")
	admin := env.createUser(t, "admin", true)
	u1 := env.createUser(t, "u1", false)
	u2 := env.createUser(t, "u2", false)

	// 非管理员拒绝
	if _, err := env.notifications.Broadcast(Actor{ID: u1.ID}, "公告", "内容", nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// 显式名单
	count, err := env.notifications.Broadcast(Actor{ID: admin.ID, IsAdmin: true}, "定向", "内容", []uint{u1.ID})
	if err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 notification, got %d", count)
	}

	// 全量广播（管理员自己也收到）
	count, err = env.notifications.Broadcast(Actor{ID: admin.ID, IsAdmin: true}, "全员", "内容", nil)
	if err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 notifications, got %d", count)
	}

	var system int64
	env.db.Model(&models.Notification{}).
		Where("type = ? AND recipient_id = ?", constants.NotificationTypeSystem, u2.ID).
		Count(&system)
	if system != 1 {
		t.Fatalf("expected u2 to receive 1 system notification, got %d", system)
	}

	// 系统通知无发送者
	var record models.Notification
	if err := env.db.Where("recipient_id = ? AND type = ?", u2.ID, constants.NotificationTypeSystem).
		First(&record).Error; err != nil {
		t.Fatalf("load broadcast record failed: %v", err)
	}
	if record.SenderID != nil {
		t.Fatalf("expected nil sender for system notification, got %v", record.SenderID)
	}
}
