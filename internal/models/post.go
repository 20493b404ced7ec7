package models

import (
	"time"

	"github.com/wenji-next/internal/constants"
)

// Post 文章表。
// 不变量：PublishDate 当且仅当 status 为 published/scheduled 时有值；
// published 的 PublishDate 不晚于当下，scheduled 的在调度时刻严格在未来。
type Post struct {
	ID           uint       `gorm:"primarykey" json:"id"`                     // 主键
	Title        string     `gorm:"not null" json:"title"`                    // 标题
	Slug         string     `gorm:"uniqueIndex;not null" json:"slug"`         // 唯一标识，仅在标题变化时重新生成
	Content      string     `gorm:"type:text" json:"content"`                 // 正文
	Summary      string     `gorm:"type:text" json:"summary"`                 // 摘要，缺省时由正文派生
	AuthorID     uint       `gorm:"not null;index" json:"author_id"`          // 作者
	Author       User       `gorm:"foreignKey:AuthorID" json:"author"`        // 作者信息
	CategoryID   uint       `gorm:"not null;index" json:"category_id"`        // 所属分类
	Category     Category   `gorm:"foreignKey:CategoryID" json:"category"`    // 分类信息
	Tags         []Tag      `gorm:"many2many:post_tags" json:"tags"`          // 标签集合
	Status       string     `gorm:"default:'draft';not null;index" json:"status"` // draft/published/scheduled
	PublishDate  *time.Time `gorm:"index" json:"publish_date"`                // 发布时间（可空）
	ViewCount    int64      `gorm:"default:0" json:"view_count"`              // 浏览计数
	LikeCount    int64      `gorm:"default:0" json:"like_count"`              // 点赞计数 = post_likes 基数
	CommentCount int64      `gorm:"default:0" json:"comment_count"`           // 评论计数 = 可见评论基数
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (Post) TableName() string {
	return "posts"
}

// IsPublished 是否已发布
func (p *Post) IsPublished() bool {
	return p.Status == constants.PostStatusPublished
}

// PostLike 文章点赞表
type PostLike struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                     // 主键
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like_pair" json:"post_id"`   // 文章
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_like_pair;index" json:"user_id"` // 点赞用户
	CreatedAt time.Time `json:"created_at"`                                               // 点赞时间
}

// TableName 指定表名
func (PostLike) TableName() string {
	return "post_likes"
}
