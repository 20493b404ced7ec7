package provider

import (
	"github.com/wenji-next/internal/cache"
	"github.com/wenji-next/internal/config"
	"github.com/wenji-next/internal/logger"
	"github.com/wenji-next/internal/models"
	"github.com/wenji-next/internal/queue"
	"github.com/wenji-next/internal/repository"
	"github.com/wenji-next/internal/service"
)

// Container 依赖注入容器。
// 服务实例本身无可变状态（持久化句柄除外），可安全替换或并存多份。
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	FollowRepo       repository.FollowRepository
	CategoryRepo     repository.CategoryRepository
	TagRepo          repository.TagRepository
	PostRepo         repository.PostRepository
	CommentRepo      repository.CommentRepository
	NotificationRepo repository.NotificationRepository

	// Services
	NotificationService *service.NotificationService
	PostService         *service.PostService
	CommentService      *service.CommentService
	CategoryService     *service.CategoryService
	TagService          *service.TagService
	CounterService      *service.CounterService
	SocialService       *service.SocialService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.FollowRepo = repository.NewFollowRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.TagRepo = repository.NewTagRepository(db)
	c.PostRepo = repository.NewPostRepository(db)
	c.CommentRepo = repository.NewCommentRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
}

func (c *Container) initServices() {
	// 队列未启用时通知服务直接走同步投递
	var enqueuer service.DispatchEnqueuer
	if c.QueueClient.Enabled() {
		enqueuer = c.QueueClient
	}
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.UserRepo, enqueuer)

	c.PostService = service.NewPostService(c.PostRepo, c.NotificationService)
	c.CommentService = service.NewCommentService(c.CommentRepo, c.PostRepo, c.NotificationService)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo, c.PostRepo)
	c.TagService = service.NewTagService(c.TagRepo)
	c.CounterService = service.NewCounterService(c.PostRepo, c.CommentRepo, c.CategoryRepo, c.TagRepo)
	c.SocialService = service.NewSocialService(c.FollowRepo, c.UserRepo, c.NotificationService)
}
