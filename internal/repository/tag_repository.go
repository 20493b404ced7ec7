package repository

import (
	"errors"

	"github.com/wenji-next/internal/models"

	"gorm.io/gorm"
)

// TagRepository 标签数据访问接口
type TagRepository interface {
	List() ([]models.Tag, error)
	GetByID(id uint) (*models.Tag, error)
	GetByIDs(ids []uint) ([]models.Tag, error)
	Create(tag *models.Tag) error
	Update(tag *models.Tag) error
	Delete(id uint) error
	CountByName(name string, excludeID *uint) (int64, error)
	CountBySlug(slug string, excludeID *uint) (int64, error)
	CountPosts(tagID uint) (int64, error)
	SetPostCount(id uint, count int64) error
	IncrementPostCount(id uint, delta int) error
}

// GormTagRepository GORM 实现
type GormTagRepository struct {
	db *gorm.DB
}

// NewTagRepository 创建标签仓库
func NewTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{db: db}
}

// List 标签列表
func (r *GormTagRepository) List() ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.Order("post_count DESC, id ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetByID 根据 ID 获取标签
func (r *GormTagRepository) GetByID(id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// GetByIDs 批量获取标签
func (r *GormTagRepository) GetByIDs(ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := r.db.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Create 创建标签
func (r *GormTagRepository) Create(tag *models.Tag) error {
	return r.db.Create(tag).Error
}

// Update 更新标签
func (r *GormTagRepository) Update(tag *models.Tag) error {
	return r.db.Save(tag).Error
}

// Delete 删除标签
func (r *GormTagRepository) Delete(id uint) error {
	return r.db.Delete(&models.Tag{}, id).Error
}

// CountByName 统计同名标签数量
func (r *GormTagRepository) CountByName(name string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Tag{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBySlug 统计 slug 数量
func (r *GormTagRepository) CountBySlug(slug string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Tag{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountPosts 统计引用该标签的文章数
func (r *GormTagRepository) CountPosts(tagID uint) (int64, error) {
	var count int64
	if err := r.db.Table("post_tags").Where("tag_id = ?", tagID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SetPostCount 覆盖写入冗余文章计数
func (r *GormTagRepository) SetPostCount(id uint, count int64) error {
	return r.db.Model(&models.Tag{}).Where("id = ?", id).UpdateColumn("post_count", count).Error
}

// IncrementPostCount 冗余文章计数原子增减
func (r *GormTagRepository) IncrementPostCount(id uint, delta int) error {
	return r.db.Model(&models.Tag{}).Where("id = ?", id).
		UpdateColumn("post_count", gorm.Expr("post_count + ?", delta)).Error
}
