package service

import (
	"errors"
	"fmt"
)

// 错误种类哨兵。核心操作要么返回领域结果，要么返回其中一种，
// 外层协作方只依赖种类做状态码映射，不感知具体错误。
var (
	ErrNotFound        = errors.New("记录不存在")
	ErrForbidden       = errors.New("无权执行该操作")
	ErrConflict        = errors.New("状态冲突")
	ErrInvalidArgument = errors.New("参数不合法")
	ErrInternal        = errors.New("内部错误")
)

// 具体错误哨兵，均包装一个种类，errors.Is 对两者都成立。
var (
	ErrNameExists           = fmt.Errorf("%w: 名称已存在", ErrConflict)
	ErrSlugExists           = fmt.Errorf("%w: slug 已存在", ErrConflict)
	ErrAlreadyPublished     = fmt.Errorf("%w: 文章已发布", ErrConflict)
	ErrAlreadyDraft         = fmt.Errorf("%w: 文章已是草稿", ErrConflict)
	ErrInvalidTransition    = fmt.Errorf("%w: 不允许的状态流转", ErrConflict)
	ErrPublishDateNotFuture = fmt.Errorf("%w: 定时发布时间必须在未来", ErrInvalidArgument)
	ErrInvalidStatus        = fmt.Errorf("%w: 未知的文章状态", ErrInvalidArgument)
	ErrCategoryInUse        = fmt.Errorf("%w: 分类仍被使用", ErrConflict)
	ErrCategoryCycle        = fmt.Errorf("%w: 分类父链出现环", ErrInvalidArgument)
	ErrSelfParent           = fmt.Errorf("%w: 分类不能作为自己的父级", ErrInvalidArgument)
	ErrTagInUse             = fmt.Errorf("%w: 标签仍被引用", ErrConflict)
	ErrAlreadyLiked         = fmt.Errorf("%w: 已经点过赞", ErrConflict)
	ErrNotLiked             = fmt.Errorf("%w: 尚未点赞", ErrConflict)
	ErrSelfFollow           = fmt.Errorf("%w: 不能关注自己", ErrInvalidArgument)
	ErrAlreadyFollowing     = fmt.Errorf("%w: 已经关注过", ErrConflict)
	ErrNotFollowing         = fmt.Errorf("%w: 尚未关注", ErrConflict)
	ErrParentMismatch       = fmt.Errorf("%w: 父评论不属于该文章", ErrInvalidArgument)
)

// wrapInternal 把底层持久化错误收敛为 Internal 种类，
// 保证原始 gorm 错误不越过服务边界。
func wrapInternal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
