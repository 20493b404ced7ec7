package repository

import (
	"errors"

	"github.com/wenji-next/internal/models"

	"gorm.io/gorm"
)

// CommentRepository 评论数据访问接口。
// 所有 List* 读路径无条件过滤软删除评论。
type CommentRepository interface {
	GetByID(id uint) (*models.Comment, error)
	Create(comment *models.Comment) error
	Update(comment *models.Comment) error
	UpdateFields(id uint, fields map[string]interface{}) error
	ListTopByPost(postID uint, page, pageSize int) ([]models.Comment, int64, error)
	ListReplies(parentID uint, limit int) ([]models.Comment, error)
	CountReplies(parentID uint) (int64, error)
	ListByUser(userID uint, page, pageSize int) ([]models.Comment, int64, error)
	CountVisibleByPost(postID uint) (int64, error)
	DeleteByPost(postID uint) error

	HasLike(commentID, userID uint) (bool, error)
	CreateLike(like *models.CommentLike) error
	DeleteLike(commentID, userID uint) (int64, error)
	CountLikes(commentID uint) (int64, error)
	IncrementLikeCount(id uint, delta int) error

	Transaction(fn func(tx *gorm.DB) error) error
}

// GormCommentRepository GORM 实现
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository 创建评论仓库
func NewCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) visible() *gorm.DB {
	return r.db.Model(&models.Comment{}).Where("is_deleted = ? AND is_approved = ?", false, true)
}

// GetByID 根据 ID 获取评论（含软删除，结构读取需要）
func (r *GormCommentRepository) GetByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// Create 创建评论
func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// Update 更新评论
func (r *GormCommentRepository) Update(comment *models.Comment) error {
	return r.db.Omit("Author").Save(comment).Error
}

// UpdateFields 按字段更新评论
func (r *GormCommentRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Comment{}).Where("id = ?", id).Updates(fields).Error
}

// ListTopByPost 文章顶层评论列表，精选优先、新评论在前
func (r *GormCommentRepository) ListTopByPost(postID uint, page, pageSize int) ([]models.Comment, int64, error) {
	query := r.visible().Where("post_id = ? AND parent_id IS NULL", postID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	query = applyPagination(query, page, pageSize)
	if err := query.Preload("Author").
		Order("is_highlighted DESC, created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListReplies 直接回复列表，最早的在前；limit <= 0 不限制
func (r *GormCommentRepository) ListReplies(parentID uint, limit int) ([]models.Comment, error) {
	query := r.visible().Where("parent_id = ?", parentID).
		Preload("Author").Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var comments []models.Comment
	if err := query.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// CountReplies 统计可见直接回复数
func (r *GormCommentRepository) CountReplies(parentID uint) (int64, error) {
	var count int64
	if err := r.visible().Where("parent_id = ?", parentID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListByUser 用户评论列表
func (r *GormCommentRepository) ListByUser(userID uint, page, pageSize int) ([]models.Comment, int64, error) {
	query := r.visible().Where("author_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	query = applyPagination(query, page, pageSize)
	if err := query.Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// CountVisibleByPost 统计文章可见评论真实基数（全部层级）
func (r *GormCommentRepository) CountVisibleByPost(postID uint) (int64, error) {
	var count int64
	if err := r.visible().Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByPost 文章删除级联，硬删除评论与其点赞关系
func (r *GormCommentRepository) DeleteByPost(postID uint) error {
	sub := r.db.Model(&models.Comment{}).Select("id").Where("post_id = ?", postID)
	if err := r.db.Where("comment_id IN (?)", sub).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}
	return r.db.Where("post_id = ?", postID).Delete(&models.Comment{}).Error
}

// HasLike 判断用户是否已点赞
func (r *GormCommentRepository) HasLike(commentID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.CommentLike{}).
		Where("comment_id = ? AND user_id = ?", commentID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateLike 写入点赞关系
func (r *GormCommentRepository) CreateLike(like *models.CommentLike) error {
	return r.db.Create(like).Error
}

// DeleteLike 删除点赞关系，返回影响行数
func (r *GormCommentRepository) DeleteLike(commentID, userID uint) (int64, error) {
	result := r.db.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
	return result.RowsAffected, result.Error
}

// CountLikes 统计点赞关系真实基数
func (r *GormCommentRepository) CountLikes(commentID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementLikeCount 点赞计数原子增减
func (r *GormCommentRepository) IncrementLikeCount(id uint, delta int) error {
	return r.db.Model(&models.Comment{}).Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

// Transaction 在事务中执行
func (r *GormCommentRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}
