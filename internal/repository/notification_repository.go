package repository

import (
	"errors"
	"time"

	"github.com/wenji-next/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	CreateBatch(notifications []models.Notification, batchSize int) error
	GetByID(id uint) (*models.Notification, error)
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	CountUnread(recipientID uint) (int64, error)
	Update(notification *models.Notification) error
	MarkAllRead(recipientID uint, ids []uint, now time.Time) (int64, error)
	DeleteByID(id, recipientID uint) (int64, error)
	DeleteByIDs(recipientID uint, ids []uint) (int64, error)
	DeleteRead(recipientID uint) (int64, error)
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create 创建通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// CreateBatch 批量创建通知（系统广播）
func (r *GormNotificationRepository) CreateBatch(notifications []models.Notification, batchSize int) error {
	if len(notifications) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return r.db.CreateInBatches(notifications, batchSize).Error
}

// GetByID 根据 ID 获取通知
func (r *GormNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

// List 通知列表
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("recipient_id = ?", filter.RecipientID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// CountUnread 未读通知数
func (r *GormNotificationRepository) CountUnread(recipientID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update 更新通知
func (r *GormNotificationRepository) Update(notification *models.Notification) error {
	return r.db.Save(notification).Error
}

// MarkAllRead 批量置为已读，ids 非空时只处理子集，返回影响行数
func (r *GormNotificationRepository) MarkAllRead(recipientID uint, ids []uint, now time.Time) (int64, error) {
	query := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	result := query.Updates(map[string]interface{}{
		"is_read": true,
		"read_at": now,
	})
	return result.RowsAffected, result.Error
}

// DeleteByID 删除单条通知，只允许删除属于自己的
func (r *GormNotificationRepository) DeleteByID(id, recipientID uint) (int64, error) {
	result := r.db.Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// DeleteByIDs 按 ID 子集批量删除
func (r *GormNotificationRepository) DeleteByIDs(recipientID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("recipient_id = ? AND id IN ?", recipientID, ids).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// DeleteRead 删除全部已读通知
func (r *GormNotificationRepository) DeleteRead(recipientID uint) (int64, error) {
	result := r.db.Where("recipient_id = ? AND is_read = ?", recipientID, true).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
