package models

import (
	"fmt"
	"time"
)

// Comment 评论表。
// Level/Path 在创建时由父评论一次性确定，此后不再变化；
// 父评论被软删除只影响可见性，不改变子树的结构字段。
type Comment struct {
	ID            uint       `gorm:"primarykey" json:"id"`                    // 主键
	PostID        uint       `gorm:"not null;index" json:"post_id"`           // 所属文章
	AuthorID      uint       `gorm:"not null;index" json:"author_id"`         // 评论作者
	Author        User       `gorm:"foreignKey:AuthorID" json:"author"`       // 作者信息
	ParentID      *uint      `gorm:"index" json:"parent_id"`                  // 父评论（顶层为空）
	Content       string     `gorm:"type:text;not null" json:"content"`       // 内容
	Level         int        `gorm:"not null;default:1" json:"level"`         // 层级，顶层为 1
	Path          string     `gorm:"default:''" json:"path"`                  // 祖先 id 链，顶层为空串
	LikeCount     int64      `gorm:"default:0" json:"like_count"`             // 点赞计数 = comment_likes 基数
	IsEdited      bool       `gorm:"default:false" json:"is_edited"`          // 是否被编辑过
	IsApproved    bool       `gorm:"default:true" json:"is_approved"`         // 审核通过
	IsHighlighted bool       `gorm:"default:false" json:"is_highlighted"`     // 精选标记，列表排序优先
	IsDeleted     bool       `gorm:"default:false;index" json:"is_deleted"`   // 软删除标记，读路径一律过滤
	DeletedAt     *time.Time `json:"deleted_at"`                              // 软删除时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt     time.Time  `json:"updated_at"`                              // 更新时间
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}

// ChildPath 计算直接回复应使用的 path
func (c *Comment) ChildPath() string {
	if c.Path == "" {
		return fmt.Sprintf("%d", c.ID)
	}
	return fmt.Sprintf("%s/%d", c.Path, c.ID)
}

// CountsTowardPost 是否计入所属文章的评论计数
func (c *Comment) CountsTowardPost() bool {
	return c.IsApproved && !c.IsDeleted
}

// CommentLike 评论点赞表
type CommentLike struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                           // 主键
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_like_pair" json:"comment_id"`   // 评论
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_like_pair;index" json:"user_id"` // 点赞用户
	CreatedAt time.Time `json:"created_at"`                                                     // 点赞时间
}

// TableName 指定表名
func (CommentLike) TableName() string {
	return "comment_likes"
}
