package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/wenji-next/internal/constants"
	"github.com/wenji-next/internal/models"

	"gorm.io/gorm"
)

// PostRepository 文章数据访问接口，含点赞/收藏关系与计数维护
type PostRepository interface {
	List(filter PostListFilter) ([]models.Post, int64, error)
	GetByID(id uint) (*models.Post, error)
	GetBySlug(slug string) (*models.Post, error)
	Create(post *models.Post) error
	Update(post *models.Post) error
	UpdateFields(id uint, fields map[string]interface{}) error
	Delete(id uint) error
	CountBySlug(slug string, excludeID *uint) (int64, error)
	CountByCategory(categoryID uint) (int64, error)
	ReplaceTags(post *models.Post, tags []models.Tag) error
	ClearTags(post *models.Post) error

	SweepDue(now time.Time) (int64, error)
	IncrementViewCount(id uint) error
	IncrementLikeCount(id uint, delta int) error
	IncrementCommentCount(id uint, delta int) error

	HasLike(postID, userID uint) (bool, error)
	CreateLike(like *models.PostLike) error
	DeleteLike(postID, userID uint) (int64, error)
	DeleteLikesByPost(postID uint) error
	CountLikes(postID uint) (int64, error)

	HasSave(postID, userID uint) (bool, error)
	CreateSave(save *models.PostSave) error
	DeleteSave(postID, userID uint) (int64, error)
	DeleteSavesByPost(postID uint) error
	ListSavedByUser(userID uint, page, pageSize int) ([]models.Post, int64, error)

	GroupCountByCategory() (map[uint]int64, error)
	GroupCountByTag() (map[uint]int64, error)

	Transaction(fn func(tx *gorm.DB) error) error
}

// GormPostRepository GORM 实现
type GormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository 创建文章仓库
func NewPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// List 文章列表
func (r *GormPostRepository) List(filter PostListFilter) ([]models.Post, int64, error) {
	var posts []models.Post
	query := r.db.Model(&models.Post{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AuthorID > 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.TagID > 0 {
		query = query.Where("id IN (?)", r.db.Table("post_tags").Select("post_id").Where("tag_id = ?", filter.TagID))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR summary LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	if err := query.Preload("Author").Preload("Category").Preload("Tags").Order(orderBy).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetByID 根据 ID 获取文章
func (r *GormPostRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.Preload("Author").Preload("Category").Preload("Tags").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetBySlug 根据 slug 获取文章
func (r *GormPostRepository) GetBySlug(slug string) (*models.Post, error) {
	var post models.Post
	if err := r.db.Preload("Author").Preload("Category").Preload("Tags").Where("slug = ?", slug).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create 创建文章
func (r *GormPostRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

// Update 更新文章（不联动关联表，标签走 ReplaceTags）
func (r *GormPostRepository) Update(post *models.Post) error {
	return r.db.Omit("Author", "Category", "Tags").Save(post).Error
}

// UpdateFields 按字段更新文章
func (r *GormPostRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除文章
func (r *GormPostRepository) Delete(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// CountBySlug 统计 slug 数量
func (r *GormPostRepository) CountBySlug(slug string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByCategory 统计某分类下文章数
func (r *GormPostRepository) CountByCategory(categoryID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Post{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceTags 整体替换文章标签关联
func (r *GormPostRepository) ReplaceTags(post *models.Post, tags []models.Tag) error {
	return r.db.Model(post).Association("Tags").Replace(tags)
}

// ClearTags 清空文章标签关联
func (r *GormPostRepository) ClearTags(post *models.Post) error {
	return r.db.Model(post).Association("Tags").Clear()
}

// SweepDue 到点定时文章批量转为已发布，返回影响行数。
// 单条条件更新，天然幂等，可与自身并发执行。
func (r *GormPostRepository) SweepDue(now time.Time) (int64, error) {
	result := r.db.Model(&models.Post{}).
		Where("status = ? AND publish_date <= ?", constants.PostStatusScheduled, now).
		UpdateColumn("status", constants.PostStatusPublished)
	return result.RowsAffected, result.Error
}

// IncrementViewCount 浏览计数原子自增
func (r *GormPostRepository) IncrementViewCount(id uint) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// IncrementLikeCount 点赞计数原子增减
func (r *GormPostRepository) IncrementLikeCount(id uint, delta int) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

// IncrementCommentCount 评论计数原子增减
func (r *GormPostRepository) IncrementCommentCount(id uint, delta int) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", delta)).Error
}

// HasLike 判断用户是否已点赞
func (r *GormPostRepository) HasLike(postID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateLike 写入点赞关系
func (r *GormPostRepository) CreateLike(like *models.PostLike) error {
	return r.db.Create(like).Error
}

// DeleteLike 删除点赞关系，返回影响行数
func (r *GormPostRepository) DeleteLike(postID, userID uint) (int64, error) {
	result := r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
	return result.RowsAffected, result.Error
}

// DeleteLikesByPost 删除文章全部点赞关系
func (r *GormPostRepository) DeleteLikesByPost(postID uint) error {
	return r.db.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error
}

// CountLikes 统计点赞关系真实基数
func (r *GormPostRepository) CountLikes(postID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HasSave 判断用户是否已收藏
func (r *GormPostRepository) HasSave(postID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.PostSave{}).
		Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateSave 写入收藏关系
func (r *GormPostRepository) CreateSave(save *models.PostSave) error {
	return r.db.Create(save).Error
}

// DeleteSave 删除收藏关系，返回影响行数
func (r *GormPostRepository) DeleteSave(postID, userID uint) (int64, error) {
	result := r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostSave{})
	return result.RowsAffected, result.Error
}

// DeleteSavesByPost 删除文章全部收藏关系（文章删除级联）
func (r *GormPostRepository) DeleteSavesByPost(postID uint) error {
	return r.db.Where("post_id = ?", postID).Delete(&models.PostSave{}).Error
}

// ListSavedByUser 用户收藏的文章列表
func (r *GormPostRepository) ListSavedByUser(userID uint, page, pageSize int) ([]models.Post, int64, error) {
	sub := r.db.Model(&models.PostSave{}).Select("post_id").Where("user_id = ?", userID)
	query := r.db.Model(&models.Post{}).Where("id IN (?)", sub)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	query = applyPagination(query, page, pageSize)
	if err := query.Preload("Author").Preload("Category").Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GroupCountByCategory 按分类聚合文章真实数量
func (r *GormPostRepository) GroupCountByCategory() (map[uint]int64, error) {
	type row struct {
		CategoryID uint
		Total      int64
	}
	var rows []row
	if err := r.db.Model(&models.Post{}).
		Select("category_id, COUNT(*) AS total").
		Group("category_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, item := range rows {
		counts[item.CategoryID] = item.Total
	}
	return counts, nil
}

// GroupCountByTag 按标签聚合文章真实数量
func (r *GormPostRepository) GroupCountByTag() (map[uint]int64, error) {
	type row struct {
		TagID uint
		Total int64
	}
	var rows []row
	if err := r.db.Table("post_tags").
		Select("tag_id, COUNT(*) AS total").
		Group("tag_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, item := range rows {
		counts[item.TagID] = item.Total
	}
	return counts, nil
}

// Transaction 在事务中执行
func (r *GormPostRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}
