package models

import (
	"time"
)

// Category 分类表。父子关系构成一棵森林，父链不允许出现环。
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`             // 主键
	Name      string    `gorm:"uniqueIndex;not null" json:"name"` // 分类名称
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"` // 唯一标识
	ParentID  *uint     `gorm:"index" json:"parent_id"`           // 父分类（可空）
	SortOrder int       `gorm:"default:0;index" json:"sort_order"` // 同级排序权重
	PostCount int64     `gorm:"default:0" json:"post_count"`      // 冗余文章计数
	CreatedAt time.Time `json:"created_at"`                       // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                       // 更新时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// Tag 标签表
type Tag struct {
	ID        uint      `gorm:"primarykey" json:"id"`             // 主键
	Name      string    `gorm:"uniqueIndex;not null" json:"name"` // 标签名称
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"` // 唯一标识
	PostCount int64     `gorm:"default:0" json:"post_count"`      // 冗余文章计数
	CreatedAt time.Time `json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}
