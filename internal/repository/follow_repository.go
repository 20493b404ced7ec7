package repository

import (
	"github.com/wenji-next/internal/models"

	"gorm.io/gorm"
)

// FollowRepository 关注关系数据访问接口
type FollowRepository interface {
	Has(followerID, followingID uint) (bool, error)
	Create(follow *models.Follow) error
	Delete(followerID, followingID uint) (int64, error)
	ListFollowers(userID uint) ([]models.User, error)
	ListFollowing(userID uint) ([]models.User, error)
	CountFollowers(userID uint) (int64, error)
	CountFollowing(userID uint) (int64, error)
	MutualIDs(userID uint) ([]uint, error)
	RecommendIDs(userID uint, limit int) ([]uint, error)
}

// GormFollowRepository GORM 实现
type GormFollowRepository struct {
	db *gorm.DB
}

// NewFollowRepository 创建关注仓库
func NewFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Has 判断关注关系是否存在
func (r *GormFollowRepository) Has(followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 写入关注关系
func (r *GormFollowRepository) Create(follow *models.Follow) error {
	return r.db.Create(follow).Error
}

// Delete 删除关注关系，返回影响行数
func (r *GormFollowRepository) Delete(followerID, followingID uint) (int64, error) {
	result := r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	return result.RowsAffected, result.Error
}

// ListFollowers 粉丝列表
func (r *GormFollowRepository) ListFollowers(userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.Model(&models.User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListFollowing 关注列表
func (r *GormFollowRepository) ListFollowing(userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.Model(&models.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountFollowers 粉丝数
func (r *GormFollowRepository) CountFollowers(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountFollowing 关注数
func (r *GormFollowRepository) CountFollowing(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MutualIDs 互相关注的用户 ID
func (r *GormFollowRepository) MutualIDs(userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Follow{}).
		Joins("JOIN follows b ON follows.following_id = b.follower_id AND b.following_id = follows.follower_id").
		Where("follows.follower_id = ?", userID).
		Pluck("follows.following_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// RecommendIDs 推荐关注：我关注的人还关注了谁，按重合度降序。
// 排除自己与已关注对象。
func (r *GormFollowRepository) RecommendIDs(userID uint, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 10
	}
	already := r.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID)

	type row struct {
		CandidateID uint
	}
	var rows []row
	if err := r.db.Table("follows AS mine").
		Select("theirs.following_id AS candidate_id").
		Joins("JOIN follows AS theirs ON mine.following_id = theirs.follower_id").
		Where("mine.follower_id = ?", userID).
		Where("theirs.following_id != ?", userID).
		Where("theirs.following_id NOT IN (?)", already).
		Group("theirs.following_id").
		Order("COUNT(*) DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, item := range rows {
		ids = append(ids, item.CandidateID)
	}
	return ids, nil
}
