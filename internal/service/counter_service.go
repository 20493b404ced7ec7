package service

import (
	"github.com/wenji-next/internal/repository"
)

// CounterService 冗余计数对账服务。
// 常规路径下计数随写操作在同一事务内原子增减，
// 这里提供管理员触发的全量重算，用于修复漂移。
type CounterService struct {
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	categoryRepo repository.CategoryRepository
	tagRepo      repository.TagRepository
}

// NewCounterService 创建计数服务
func NewCounterService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	categoryRepo repository.CategoryRepository,
	tagRepo repository.TagRepository,
) *CounterService {
	return &CounterService{
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		categoryRepo: categoryRepo,
		tagRepo:      tagRepo,
	}
}

// RefreshCategoryCounts 按真实文章数重写所有分类的 post_count
func (s *CounterService) RefreshCategoryCounts() error {
	counts, err := s.postRepo.GroupCountByCategory()
	if err != nil {
		return wrapInternal(err)
	}
	categories, err := s.categoryRepo.List()
	if err != nil {
		return wrapInternal(err)
	}
	for i := range categories {
		if err := s.categoryRepo.SetPostCount(categories[i].ID, counts[categories[i].ID]); err != nil {
			return wrapInternal(err)
		}
	}
	return nil
}

// RefreshTagCounts 按真实引用数重写所有标签的 post_count
func (s *CounterService) RefreshTagCounts() error {
	counts, err := s.postRepo.GroupCountByTag()
	if err != nil {
		return wrapInternal(err)
	}
	tags, err := s.tagRepo.List()
	if err != nil {
		return wrapInternal(err)
	}
	for i := range tags {
		if err := s.tagRepo.SetPostCount(tags[i].ID, counts[tags[i].ID]); err != nil {
			return wrapInternal(err)
		}
	}
	return nil
}

// RefreshPostCounts 重算单篇文章的点赞数与可见评论数
func (s *CounterService) RefreshPostCounts(postID uint) error {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return wrapInternal(err)
	}
	if post == nil {
		return ErrNotFound
	}

	likes, err := s.postRepo.CountLikes(postID)
	if err != nil {
		return wrapInternal(err)
	}
	comments, err := s.commentRepo.CountVisibleByPost(postID)
	if err != nil {
		return wrapInternal(err)
	}
	return wrapInternal(s.postRepo.UpdateFields(postID, map[string]interface{}{
		"like_count":    likes,
		"comment_count": comments,
	}))
}
