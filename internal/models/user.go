package models

import (
	"time"
)

// User 用户表
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`                   // 主键
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`      // 邮箱
	PasswordHash string    `gorm:"not null" json:"-"`                      // 密码哈希（不返回给前端）
	DisplayName  string    `gorm:"default:''" json:"display_name"`         // 昵称
	Role         string    `gorm:"default:'user';not null" json:"role"`    // 角色（user/admin）
	Status       string    `gorm:"default:'active';not null" json:"status"` // 账号状态
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                             // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Follow 关注关系表。
// a 关注 b 只存一行 (follower=a, following=b)，
// "a 的关注列表" 与 "b 的粉丝列表" 读同一行，双向集合天然一致。
type Follow struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                        // 主键
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`     // 关注者
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"following_id"` // 被关注者
	CreatedAt   time.Time `json:"created_at"`                                                  // 关注时间
}

// TableName 指定表名
func (Follow) TableName() string {
	return "follows"
}

// PostSave 文章收藏表
type PostSave struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                 // 主键
	UserID    uint      `gorm:"not null;uniqueIndex:idx_save_pair" json:"user_id"`    // 收藏者
	PostID    uint      `gorm:"not null;uniqueIndex:idx_save_pair;index" json:"post_id"` // 文章
	CreatedAt time.Time `json:"created_at"`                                           // 收藏时间
}

// TableName 指定表名
func (PostSave) TableName() string {
	return "post_saves"
}
