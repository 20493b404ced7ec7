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

	"gorm.io/gorm"
)

// 浏览去重窗口
const viewDedupeTTL = 30 * time.Minute

// PostService 文章业务服务，承载发布状态机与相关计数维护。
// 跨实体的引用校验一律在事务内通过事务级仓库完成。
type PostService struct {
	repo     repository.PostRepository
	notifier Notifier

	// 测试中可替换，推进"当下"
	nowFunc func() time.Time
}

// NewPostService 创建文章服务
func NewPostService(repo repository.PostRepository, notifier Notifier) *PostService {
	return &PostService{
		repo:     repo,
		notifier: notifier,
		nowFunc:  time.Now,
	}
}

// CreatePostInput 创建文章输入
type CreatePostInput struct {
	Title       string
	Content     string
	Summary     string
	CategoryID  uint
	TagIDs      []uint
	Status      string
	PublishDate *time.Time
}

// UpdatePostInput 更新文章输入，nil 字段表示不修改
type UpdatePostInput struct {
	Title       *string
	Content     *string
	Summary     *string
	CategoryID  *uint
	TagIDs      *[]uint
	Status      *string
	PublishDate *time.Time
}

// Create 创建文章。
// status=published 时无条件以当下为发布时间（忽略传入值）；
// status=scheduled 时发布时间必须严格在未来。
func (s *PostService) Create(actor Actor, input CreatePostInput) (*models.Post, error) {
	status := input.Status
	if status == "" {
		status = constants.PostStatusDraft
	}
	if !validPostStatus(status) {
		return nil, ErrInvalidStatus
	}

	var publishDate *time.Time
	switch status {
	case constants.PostStatusPublished:
		now := s.nowFunc()
		publishDate = &now
	case constants.PostStatusScheduled:
		if input.PublishDate == nil || !input.PublishDate.After(s.nowFunc()) {
			return nil, ErrPublishDateNotFuture
		}
		publishDate = input.PublishDate
	}

	summary := input.Summary
	if summary == "" {
		summary = deriveSummary(input.Content)
	}

	post := models.Post{
		Title:       input.Title,
		Content:     input.Content,
		Summary:     summary,
		AuthorID:    actor.ID,
		CategoryID:  input.CategoryID,
		Status:      status,
		PublishDate: publishDate,
	}

	// 引用校验与写入同处一个事务，校验通过后被引用方不可能在提交前被删掉
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		txPosts := repository.NewPostRepository(tx)
		txUsers := repository.NewUserRepository(tx)
		txCategories := repository.NewCategoryRepository(tx)
		txTags := repository.NewTagRepository(tx)

		author, err := txUsers.GetByID(actor.ID)
		if err != nil {
			return err
		}
		if author == nil {
			return ErrNotFound
		}
		category, err := txCategories.GetByID(input.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return ErrNotFound
		}
		tags, err := resolveTags(txTags, input.TagIDs)
		if err != nil {
			return err
		}
		slug, err := ensureUniqueSlug(txPosts, slugify(input.Title), nil)
		if err != nil {
			return err
		}
		post.Slug = slug

		if err := txPosts.Create(&post); err != nil {
			return err
		}
		if len(tags) > 0 {
			if err := txPosts.ReplaceTags(&post, tags); err != nil {
				return err
			}
		}
		if err := txCategories.IncrementPostCount(input.CategoryID, 1); err != nil {
			return err
		}
		for _, tag := range tags {
			if err := txTags.IncrementPostCount(tag.ID, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err)
	}
	return s.getOrError(post.ID)
}

// Update 更新文章，仅作者本人可操作。
// slug 只在标题变化时重新派生；分类/标签变化时同事务调整双方计数；
// 状态变化走与显式流转相同的规则。
func (s *PostService) Update(postID uint, actor Actor, input UpdatePostInput) (*models.Post, error) {
	post, err := s.getOrError(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}

	titleChanged := input.Title != nil && *input.Title != post.Title
	if titleChanged {
		post.Title = *input.Title
	}
	if input.Content != nil {
		post.Content = *input.Content
		if input.Summary == nil && post.Summary == "" {
			post.Summary = deriveSummary(*input.Content)
		}
	}
	if input.Summary != nil {
		post.Summary = *input.Summary
	}

	oldCategoryID := post.CategoryID
	categoryChanged := input.CategoryID != nil && *input.CategoryID != post.CategoryID
	tagsChanged := input.TagIDs != nil
	oldTagIDs := tagIDs(post.Tags)

	if input.Status != nil && *input.Status != post.Status {
		if !validPostStatus(*input.Status) {
			return nil, ErrInvalidStatus
		}
		if err := s.applyTransition(post, *input.Status, input.PublishDate); err != nil {
			return nil, err
		}
	}

	// 新分类/新标签的存在性校验放在事务内，与写入一起提交或一起回滚
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txPosts := repository.NewPostRepository(tx)
		txCategories := repository.NewCategoryRepository(tx)
		txTags := repository.NewTagRepository(tx)

		if titleChanged {
			slug, err := ensureUniqueSlug(txPosts, slugify(post.Title), &postID)
			if err != nil {
				return err
			}
			post.Slug = slug
		}
		if categoryChanged {
			category, err := txCategories.GetByID(*input.CategoryID)
			if err != nil {
				return err
			}
			if category == nil {
				return ErrNotFound
			}
			post.CategoryID = *input.CategoryID
		}
		var newTags []models.Tag
		if tagsChanged {
			var err error
			newTags, err = resolveTags(txTags, *input.TagIDs)
			if err != nil {
				return err
			}
		}

		if err := txPosts.Update(post); err != nil {
			return err
		}
		if post.CategoryID != oldCategoryID {
			if err := txCategories.IncrementPostCount(oldCategoryID, -1); err != nil {
				return err
			}
			if err := txCategories.IncrementPostCount(post.CategoryID, 1); err != nil {
				return err
			}
		}
		if tagsChanged {
			if err := txPosts.ReplaceTags(post, newTags); err != nil {
				return err
			}
			added, removed := diffIDs(oldTagIDs, tagIDs(newTags))
			for _, id := range added {
				if err := txTags.IncrementPostCount(id, 1); err != nil {
					return err
				}
			}
			for _, id := range removed {
				if err := txTags.IncrementPostCount(id, -1); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err)
	}
	return s.getOrError(postID)
}

// Publish 发布文章（草稿或定时均可立即发布）
func (s *PostService) Publish(postID uint, actor Actor) (*models.Post, error) {
	return s.transition(postID, actor, constants.PostStatusPublished, nil)
}

// Unpublish 撤回为草稿
func (s *PostService) Unpublish(postID uint, actor Actor) (*models.Post, error) {
	return s.transition(postID, actor, constants.PostStatusDraft, nil)
}

// Schedule 定时发布，时间必须严格在未来
func (s *PostService) Schedule(postID uint, actor Actor, publishDate time.Time) (*models.Post, error) {
	return s.transition(postID, actor, constants.PostStatusScheduled, &publishDate)
}

func (s *PostService) transition(postID uint, actor Actor, target string, publishDate *time.Time) (*models.Post, error) {
	post, err := s.getOrError(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	if err := s.applyTransition(post, target, publishDate); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateFields(postID, map[string]interface{}{
		"status":       post.Status,
		"publish_date": post.PublishDate,
	}); err != nil {
		return nil, wrapInternal(err)
	}
	return s.getOrError(postID)
}

// applyTransition 在内存对象上执行状态流转，非法流转直接报错。
// publishDate 仅对进入 scheduled 有意义。
func (s *PostService) applyTransition(post *models.Post, target string, publishDate *time.Time) error {
	switch target {
	case constants.PostStatusPublished:
		if post.Status == constants.PostStatusPublished {
			return ErrAlreadyPublished
		}
		now := s.nowFunc()
		post.Status = constants.PostStatusPublished
		post.PublishDate = &now
	case constants.PostStatusDraft:
		if post.Status == constants.PostStatusDraft {
			return ErrAlreadyDraft
		}
		post.Status = constants.PostStatusDraft
		post.PublishDate = nil
	case constants.PostStatusScheduled:
		// 已发布的文章不允许回到定时态
		if post.Status == constants.PostStatusPublished {
			return ErrInvalidTransition
		}
		if publishDate == nil || !publishDate.After(s.nowFunc()) {
			return ErrPublishDateNotFuture
		}
		post.Status = constants.PostStatusScheduled
		post.PublishDate = publishDate
	default:
		return ErrInvalidStatus
	}
	return nil
}

// SweepScheduled 把所有到点的定时文章批量置为已发布，返回条数。
// 发布时间保持原定值不动。
func (s *PostService) SweepScheduled() (int64, error) {
	count, err := s.repo.SweepDue(s.nowFunc())
	if err != nil {
		return 0, wrapInternal(err)
	}
	return count, nil
}

// Delete 删除文章，作者或管理员可操作。
// 同事务级联：评论及其点赞、文章点赞、收藏、标签关联，并回退分类/标签计数。
func (s *PostService) Delete(postID uint, actor Actor) error {
	post, err := s.getOrError(postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.ID && !actor.IsAdmin {
		return ErrForbidden
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txPosts := repository.NewPostRepository(tx)
		txComments := repository.NewCommentRepository(tx)
		txCategories := repository.NewCategoryRepository(tx)
		txTags := repository.NewTagRepository(tx)

		if err := txComments.DeleteByPost(postID); err != nil {
			return err
		}
		if err := txPosts.DeleteLikesByPost(postID); err != nil {
			return err
		}
		if err := txPosts.DeleteSavesByPost(postID); err != nil {
			return err
		}
		if err := txPosts.ClearTags(post); err != nil {
			return err
		}
		if err := txCategories.IncrementPostCount(post.CategoryID, -1); err != nil {
			return err
		}
		for _, tag := range post.Tags {
			if err := txTags.IncrementPostCount(tag.ID, -1); err != nil {
				return err
			}
		}
		return txPosts.Delete(postID)
	})
	return wrapInternal(err)
}

// Get 获取文章并记录一次浏览。
// viewer 非空时按 (文章, 访客) 在时间窗内去重；缓存未启用则退化为不去重。
func (s *PostService) Get(postID uint, viewer string) (*models.Post, error) {
	post, err := s.getOrError(postID)
	if err != nil {
		return nil, err
	}
	s.recordView(post.ID, viewer)
	return post, nil
}

// GetBySlug 按 slug 获取文章并记录一次浏览
func (s *PostService) GetBySlug(slug string, viewer string) (*models.Post, error) {
	post, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	s.recordView(post.ID, viewer)
	return post, nil
}

func (s *PostService) recordView(postID uint, viewer string) {
	if viewer != "" {
		key := fmt.Sprintf("post:view:%d:%s", postID, viewer)
		fresh, err := cache.SetNX(context.Background(), key, "1", viewDedupeTTL)
		if err != nil {
			logger.Warnw("浏览去重写入失败", "post_id", postID, "err", err)
		}
		if err == nil && !fresh {
			return
		}
	}
	if err := s.repo.IncrementViewCount(postID); err != nil {
		logger.Warnw("浏览计数自增失败", "post_id", postID, "err", err)
	}
}

// List 文章列表
func (s *PostService) List(filter repository.PostListFilter) ([]models.Post, int64, error) {
	posts, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return posts, total, nil
}

// Like 点赞文章，重复点赞报冲突（与评论点赞的幂等语义刻意不同）
func (s *PostService) Like(postID uint, actor Actor) error {
	post, err := s.getOrError(postID)
	if err != nil {
		return err
	}
	liked, err := s.repo.HasLike(postID, actor.ID)
	if err != nil {
		return wrapInternal(err)
	}
	if liked {
		return ErrAlreadyLiked
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txPosts := repository.NewPostRepository(tx)
		if err := txPosts.CreateLike(&models.PostLike{PostID: postID, UserID: actor.ID}); err != nil {
			return err
		}
		return txPosts.IncrementLikeCount(postID, 1)
	})
	if err != nil {
		return wrapInternal(err)
	}

	if post.AuthorID != actor.ID {
		s.notifier.Notify(Event{
			Type:        constants.NotificationTypeLikePost,
			ActorID:     actor.ID,
			RecipientID: post.AuthorID,
			PostID:      postID,
		})
	}
	return nil
}

// Unlike 取消点赞
func (s *PostService) Unlike(postID uint, actor Actor) error {
	if _, err := s.getOrError(postID); err != nil {
		return err
	}
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		txPosts := repository.NewPostRepository(tx)
		rows, err := txPosts.DeleteLike(postID, actor.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotLiked
		}
		return txPosts.IncrementLikeCount(postID, -1)
	})
	return wrapInternal(err)
}

// Save 收藏文章，重复收藏为幂等空操作
func (s *PostService) Save(postID uint, actor Actor) error {
	if _, err := s.getOrError(postID); err != nil {
		return err
	}
	saved, err := s.repo.HasSave(postID, actor.ID)
	if err != nil {
		return wrapInternal(err)
	}
	if saved {
		return nil
	}
	return wrapInternal(s.repo.CreateSave(&models.PostSave{PostID: postID, UserID: actor.ID}))
}

// Unsave 取消收藏，未收藏时为幂等空操作
func (s *PostService) Unsave(postID uint, actor Actor) error {
	_, err := s.repo.DeleteSave(postID, actor.ID)
	return wrapInternal(err)
}

// ListSaved 用户收藏的文章列表
func (s *PostService) ListSaved(userID uint, page, pageSize int) ([]models.Post, int64, error) {
	posts, total, err := s.repo.ListSavedByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return posts, total, nil
}

func (s *PostService) getOrError(postID uint) (*models.Post, error) {
	post, err := s.repo.GetByID(postID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// ensureUniqueSlug 冲突时追加随机短后缀
func ensureUniqueSlug(posts repository.PostRepository, slug string, excludeID *uint) (string, error) {
	count, err := posts.CountBySlug(slug, excludeID)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return uniqueSuffix(slug), nil
	}
	return slug, nil
}

// resolveTags 校验全部标签存在并返回实体
func resolveTags(tagRepo repository.TagRepository, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tags, err := tagRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(uniqueIDs(ids)) {
		return nil, ErrNotFound
	}
	return tags, nil
}

func validPostStatus(status string) bool {
	switch status {
	case constants.PostStatusDraft, constants.PostStatusPublished, constants.PostStatusScheduled:
		return true
	}
	return false
}

func tagIDs(tags []models.Tag) []uint {
	ids := make([]uint, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diffIDs 返回 new 有 old 无（added）与 old 有 new 无（removed）的 ID
func diffIDs(oldIDs, newIDs []uint) (added, removed []uint) {
	oldSet := make(map[uint]struct{}, len(oldIDs))
	for _, id := range oldIDs {
		oldSet[id] = struct{}{}
	}
	newSet := make(map[uint]struct{}, len(newIDs))
	for _, id := range newIDs {
		newSet[id] = struct{}{}
		if _, ok := oldSet[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range oldIDs {
		if _, ok := newSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
