package service

import (
	"github.com/wenji-next/internal/constants"
	"github.com/wenji-next/internal/models"
	"github.com/wenji-next/internal/repository"
)

// SocialService 关注关系业务服务
type SocialService struct {
	repo     repository.FollowRepository
	userRepo repository.UserRepository
	notifier Notifier
}

// NewSocialService 创建社交服务
func NewSocialService(repo repository.FollowRepository, userRepo repository.UserRepository, notifier Notifier) *SocialService {
	return &SocialService{repo: repo, userRepo: userRepo, notifier: notifier}
}

// Follow 关注用户。关注关系只存一行 (follower, following)，
// "A 关注 B 当且仅当 B 被 A 关注" 由存储结构本身保证。
func (s *SocialService) Follow(actor Actor, targetID uint) error {
	if actor.ID == targetID {
		return ErrSelfFollow
	}
	target, err := s.userRepo.GetByID(targetID)
	if err != nil {
		return wrapInternal(err)
	}
	if target == nil {
		return ErrNotFound
	}

	exists, err := s.repo.Has(actor.ID, targetID)
	if err != nil {
		return wrapInternal(err)
	}
	if exists {
		return ErrAlreadyFollowing
	}
	if err := s.repo.Create(&models.Follow{FollowerID: actor.ID, FollowingID: targetID}); err != nil {
		return wrapInternal(err)
	}

	s.notifier.Notify(Event{
		Type:        constants.NotificationTypeFollow,
		ActorID:     actor.ID,
		RecipientID: targetID,
	})
	return nil
}

// Unfollow 取消关注
func (s *SocialService) Unfollow(actor Actor, targetID uint) error {
	rows, err := s.repo.Delete(actor.ID, targetID)
	if err != nil {
		return wrapInternal(err)
	}
	if rows == 0 {
		return ErrNotFollowing
	}
	return nil
}

// IsFollowing 是否已关注
func (s *SocialService) IsFollowing(followerID, followingID uint) (bool, error) {
	exists, err := s.repo.Has(followerID, followingID)
	if err != nil {
		return false, wrapInternal(err)
	}
	return exists, nil
}

// Followers 粉丝列表及总数
func (s *SocialService) Followers(userID uint) ([]models.User, int64, error) {
	users, err := s.repo.ListFollowers(userID)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	total, err := s.repo.CountFollowers(userID)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return users, total, nil
}

// Following 关注列表及总数
func (s *SocialService) Following(userID uint) ([]models.User, int64, error) {
	users, err := s.repo.ListFollowing(userID)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	total, err := s.repo.CountFollowing(userID)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return users, total, nil
}

// Mutuals 互关列表
func (s *SocialService) Mutuals(userID uint) ([]models.User, error) {
	ids, err := s.repo.MutualIDs(userID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, wrapInternal(err)
	}
	return users, nil
}

// Recommend 关注推荐：我关注的人还关注了谁，
// 按共同关注人数降序，排除自己和已关注的。
func (s *SocialService) Recommend(userID uint, limit int) ([]models.User, error) {
	ids, err := s.repo.RecommendIDs(userID, limit)
	if err != nil {
		return nil, wrapInternal(err)
	}
	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, wrapInternal(err)
	}
	// GetByIDs 不保证顺序，按推荐序重排
	byID := make(map[uint]models.User, len(users))
	for i := range users {
		byID[users[i].ID] = users[i]
	}
	ordered := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := byID[id]; ok {
			ordered = append(ordered, user)
		}
	}
	return ordered, nil
}
