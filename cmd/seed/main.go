package main

import (
	"github.com/wenji-next/internal/config"
	"github.com/wenji-next/internal/logger"
	"github.com/wenji-next/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化默认管理员
	if err := models.InitDefaultAdmin(cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
		stdLog.Printf("初始化默认管理员失败: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{Name: "技术", Slug: "tech", SortOrder: 0},
		{Name: "生活", Slug: "life", SortOrder: 1},
		{Name: "随笔", Slug: "essay", SortOrder: 2},
	}
	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			// 不存在则创建
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("创建分类 %s 失败: %v", cat.Slug, err)
			} else {
				stdLog.Printf("已创建分类: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("分类已存在: %s", cat.Slug)
		}
	}

	// 添加标签
	tags := []models.Tag{
		{Name: "Go", Slug: "go"},
		{Name: "数据库", Slug: "数据库"},
		{Name: "架构", Slug: "架构"},
		{Name: "阅读", Slug: "阅读"},
	}
	for _, tag := range tags {
		var existing models.Tag
		if err := models.DB.Where("slug = ?", tag.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&tag).Error; err != nil {
				stdLog.Printf("创建标签 %s 失败: %v", tag.Slug, err)
			} else {
				stdLog.Printf("已创建标签: %s", tag.Slug)
			}
		} else {
			stdLog.Printf("标签已存在: %s", tag.Slug)
		}
	}

	stdLog.Printf("初始数据写入完成")
}
