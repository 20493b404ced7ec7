package repository

import (
	"errors"

	"github.com/wenji-next/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类数据访问接口
type CategoryRepository interface {
	List() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	GetByIDs(ids []uint) ([]models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	UpdateFields(id uint, fields map[string]interface{}) error
	Delete(id uint) error
	CountByName(name string, excludeID *uint) (int64, error)
	CountBySlug(slug string, excludeID *uint) (int64, error)
	CountChildren(id uint) (int64, error)
	SetPostCount(id uint, count int64) error
	IncrementPostCount(id uint, delta int) error
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List 分类列表，按同级排序权重返回，树形结构由上层组装
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("sort_order ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID 根据 ID 获取分类
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// GetByIDs 批量获取分类
func (r *GormCategoryRepository) GetByIDs(ids []uint) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	if err := r.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create 创建分类
func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// Update 更新分类
func (r *GormCategoryRepository) Update(category *models.Category) error {
	return r.db.Save(category).Error
}

// UpdateFields 按字段更新分类。
// parent_id 允许置空，必须走 map 形式更新。
func (r *GormCategoryRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Category{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除分类
func (r *GormCategoryRepository) Delete(id uint) error {
	return r.db.Delete(&models.Category{}, id).Error
}

// CountByName 统计同名分类数量
func (r *GormCategoryRepository) CountByName(name string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Category{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBySlug 统计 slug 数量
func (r *GormCategoryRepository) CountBySlug(slug string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountChildren 统计子分类数量
func (r *GormCategoryRepository) CountChildren(id uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Category{}).Where("parent_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SetPostCount 覆盖写入冗余文章计数
func (r *GormCategoryRepository) SetPostCount(id uint, count int64) error {
	return r.db.Model(&models.Category{}).Where("id = ?", id).UpdateColumn("post_count", count).Error
}

// IncrementPostCount 冗余文章计数原子增减
func (r *GormCategoryRepository) IncrementPostCount(id uint, delta int) error {
	return r.db.Model(&models.Category{}).Where("id = ?", id).
		UpdateColumn("post_count", gorm.Expr("post_count + ?", delta)).Error
}

// Transaction 在事务中执行
func (r *GormCategoryRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}
