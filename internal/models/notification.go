package models

import (
	"time"
)

// Notification 通知表。只由其他实体的变更派生，
// 唯一的直接入口是管理员系统广播。
type Notification struct {
	ID          uint       `gorm:"primarykey" json:"id"`                       // 主键
	RecipientID uint       `gorm:"not null;index" json:"recipient_id"`         // 接收者
	SenderID    *uint      `gorm:"index" json:"sender_id"`                     // 触发者，系统通知为空
	Type        string     `gorm:"not null;index" json:"type"`                 // follow/comment/reply/like_post/like_comment/system
	Title       string     `gorm:"not null" json:"title"`                      // 标题
	Content     string     `gorm:"type:text" json:"content"`                   // 内容
	IsRead      bool       `gorm:"default:false;index" json:"is_read"`         // 已读标记
	ReadAt      *time.Time `json:"read_at"`                                    // 已读时间
	PostID      *uint      `gorm:"index" json:"post_id"`                       // 关联文章（可空）
	CommentID   *uint      `gorm:"index" json:"comment_id"`                    // 关联评论（可空）
	Link        string     `gorm:"default:''" json:"link"`                     // 跳转链接
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                    // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
