package service

import (
	"time"

	"github.com/wenji-next/internal/constants"
	"github.com/wenji-next/internal/models"
	"github.com/wenji-next/internal/repository"

	"gorm.io/gorm"
)

// CommentService 评论业务服务。
// 评论树的层级与路径在创建时一次固化，此后只有可见性随软删除变化。
type CommentService struct {
	repo     repository.CommentRepository
	postRepo repository.PostRepository
	notifier Notifier

	nowFunc func() time.Time
}

// NewCommentService 创建评论服务
func NewCommentService(
	repo repository.CommentRepository,
	postRepo repository.PostRepository,
	notifier Notifier,
) *CommentService {
	return &CommentService{
		repo:     repo,
		postRepo: postRepo,
		notifier: notifier,
		nowFunc:  time.Now,
	}
}

// CreateCommentInput 创建评论输入
type CreateCommentInput struct {
	PostID   uint
	Content  string
	ParentID *uint
}

// CommentThread 顶层评论及其回复预览
type CommentThread struct {
	models.Comment
	Replies    []models.Comment `json:"replies"`
	ReplyCount int64            `json:"reply_count"`
}

// Create 创建评论。
// 父评论必须属于同一篇文章；level/path 由父评论一次确定，之后不再变化。
// 评论计入文章计数的条件是"已过审且未删除"，创建时默认过审即 +1。
func (s *CommentService) Create(actor Actor, input CreateCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(input.PostID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if post == nil {
		return nil, ErrNotFound
	}

	comment := models.Comment{
		PostID:     input.PostID,
		AuthorID:   actor.ID,
		Content:    input.Content,
		Level:      1,
		Path:       "",
		IsApproved: true,
	}

	var parent *models.Comment
	if input.ParentID != nil {
		parent, err = s.repo.GetByID(*input.ParentID)
		if err != nil {
			return nil, wrapInternal(err)
		}
		if parent == nil {
			return nil, ErrNotFound
		}
		if parent.PostID != input.PostID {
			return nil, ErrParentMismatch
		}
		comment.ParentID = input.ParentID
		comment.Level = parent.Level + 1
		comment.Path = parent.ChildPath()
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txComments := repository.NewCommentRepository(tx)
		txPosts := repository.NewPostRepository(tx)
		if err := txComments.Create(&comment); err != nil {
			return err
		}
		return txPosts.IncrementCommentCount(input.PostID, 1)
	})
	if err != nil {
		return nil, wrapInternal(err)
	}

	switch {
	case parent == nil && post.AuthorID != actor.ID:
		s.notifier.Notify(Event{
			Type:        constants.NotificationTypeComment,
			ActorID:     actor.ID,
			RecipientID: post.AuthorID,
			PostID:      post.ID,
			CommentID:   comment.ID,
		})
	case parent != nil && parent.AuthorID != actor.ID:
		s.notifier.Notify(Event{
			Type:        constants.NotificationTypeReply,
			ActorID:     actor.ID,
			RecipientID: parent.AuthorID,
			PostID:      post.ID,
			CommentID:   comment.ID,
		})
	}
	return &comment, nil
}

// Update 编辑评论内容，仅作者本人，编辑后打上 isEdited 标记
func (s *CommentService) Update(commentID uint, actor Actor, content string) (*models.Comment, error) {
	comment, err := s.getVisible(commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actor.ID {
		return nil, ErrForbidden
	}

	if err := s.repo.UpdateFields(commentID, map[string]interface{}{
		"content":   content,
		"is_edited": true,
	}); err != nil {
		return nil, wrapInternal(err)
	}
	comment.Content = content
	comment.IsEdited = true
	return comment, nil
}

// Delete 软删除评论，作者或管理员可操作。
// 只改可见性，树结构不动；计数只在评论确实在计数时回退一次。
// 对已删除评论重复调用是空操作。
func (s *CommentService) Delete(commentID uint, actor Actor) error {
	comment, err := s.repo.GetByID(commentID)
	if err != nil {
		return wrapInternal(err)
	}
	if comment == nil {
		return ErrNotFound
	}
	if comment.AuthorID != actor.ID && !actor.IsAdmin {
		return ErrForbidden
	}
	if comment.IsDeleted {
		return nil
	}

	now := s.nowFunc()
	wasCounting := comment.CountsTowardPost()
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txComments := repository.NewCommentRepository(tx)
		txPosts := repository.NewPostRepository(tx)
		if err := txComments.UpdateFields(commentID, map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
		}); err != nil {
			return err
		}
		if wasCounting {
			return txPosts.IncrementCommentCount(comment.PostID, -1)
		}
		return nil
	})
	return wrapInternal(err)
}

// Like 点赞评论。重复点赞是空操作，原样返回当前状态
// （与文章点赞的报错语义刻意不同）。
func (s *CommentService) Like(commentID uint, actor Actor) (*models.Comment, error) {
	comment, err := s.getVisible(commentID)
	if err != nil {
		return nil, err
	}
	liked, err := s.repo.HasLike(commentID, actor.ID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if liked {
		return comment, nil
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txComments := repository.NewCommentRepository(tx)
		if err := txComments.CreateLike(&models.CommentLike{CommentID: commentID, UserID: actor.ID}); err != nil {
			return err
		}
		return txComments.IncrementLikeCount(commentID, 1)
	})
	if err != nil {
		return nil, wrapInternal(err)
	}
	comment.LikeCount++

	if comment.AuthorID != actor.ID {
		s.notifier.Notify(Event{
			Type:        constants.NotificationTypeLikeComment,
			ActorID:     actor.ID,
			RecipientID: comment.AuthorID,
			PostID:      comment.PostID,
			CommentID:   commentID,
		})
	}
	return comment, nil
}

// Unlike 取消点赞，未点赞时为空操作
func (s *CommentService) Unlike(commentID uint, actor Actor) (*models.Comment, error) {
	comment, err := s.getVisible(commentID)
	if err != nil {
		return nil, err
	}
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txComments := repository.NewCommentRepository(tx)
		rows, err := txComments.DeleteLike(commentID, actor.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		comment.LikeCount--
		return txComments.IncrementLikeCount(commentID, -1)
	})
	if err != nil {
		return nil, wrapInternal(err)
	}
	return comment, nil
}

// Moderate 审核评论，管理员专用。幂等：审批状态未变化时不动计数；
// 已软删除的评论只改标记，计数本就不含它。
func (s *CommentService) Moderate(commentID uint, actor Actor, isApproved bool) (*models.Comment, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	comment, err := s.repo.GetByID(commentID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if comment == nil {
		return nil, ErrNotFound
	}
	if comment.IsApproved == isApproved {
		return comment, nil
	}

	delta := -1
	if isApproved {
		delta = 1
	}
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txComments := repository.NewCommentRepository(tx)
		txPosts := repository.NewPostRepository(tx)
		if err := txComments.UpdateFields(commentID, map[string]interface{}{
			"is_approved": isApproved,
		}); err != nil {
			return err
		}
		if !comment.IsDeleted {
			return txPosts.IncrementCommentCount(comment.PostID, delta)
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err)
	}
	comment.IsApproved = isApproved
	return comment, nil
}

// Highlight 置顶标记，管理员专用，影响列表排序优先级
func (s *CommentService) Highlight(commentID uint, actor Actor, isHighlighted bool) (*models.Comment, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	comment, err := s.getVisible(commentID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateFields(commentID, map[string]interface{}{
		"is_highlighted": isHighlighted,
	}); err != nil {
		return nil, wrapInternal(err)
	}
	comment.IsHighlighted = isHighlighted
	return comment, nil
}

// ListByPost 文章的顶层评论列表：置顶优先、新评论在前，
// 每条带前几条回复预览与回复总数。软删除与未过审的一律不出现。
func (s *CommentService) ListByPost(postID uint, page, pageSize int) ([]CommentThread, int64, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	if post == nil {
		return nil, 0, ErrNotFound
	}

	comments, total, err := s.repo.ListTopByPost(postID, page, pageSize)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}

	threads := make([]CommentThread, 0, len(comments))
	for i := range comments {
		replies, err := s.repo.ListReplies(comments[i].ID, constants.CommentReplyPreviewLimit)
		if err != nil {
			return nil, 0, wrapInternal(err)
		}
		replyCount, err := s.repo.CountReplies(comments[i].ID)
		if err != nil {
			return nil, 0, wrapInternal(err)
		}
		threads = append(threads, CommentThread{
			Comment:    comments[i],
			Replies:    replies,
			ReplyCount: replyCount,
		})
	}
	return threads, total, nil
}

// ListReplies 某条评论的全部可见回复。
// 父评论被软删除不影响回复可见性，只要求它结构上存在。
func (s *CommentService) ListReplies(parentID uint) ([]models.Comment, error) {
	parent, err := s.repo.GetByID(parentID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	replies, err := s.repo.ListReplies(parentID, 0)
	if err != nil {
		return nil, wrapInternal(err)
	}
	return replies, nil
}

// ListByUser 用户的可见评论列表
func (s *CommentService) ListByUser(userID uint, page, pageSize int) ([]models.Comment, int64, error) {
	comments, total, err := s.repo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return comments, total, nil
}

// getVisible 获取未删除的评论，已删除视为不存在
func (s *CommentService) getVisible(commentID uint) (*models.Comment, error) {
	comment, err := s.repo.GetByID(commentID)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if comment == nil || comment.IsDeleted {
		return nil, ErrNotFound
	}
	return comment, nil
}
