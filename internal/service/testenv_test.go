package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/wenji-next/internal/models"
	"github.com/wenji-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// captureNotifier 记录事件供断言，不做任何投递
type captureNotifier struct {
	events []Event
}

func (n *captureNotifier) Notify(events ...Event) {
	n.events = append(n.events, events...)
}

type testEnv struct {
	db       *gorm.DB
	notifier *captureNotifier

	posts         *PostService
	comments      *CommentService
	categories    *CategoryService
	tags          *TagService
	counters      *CounterService
	social        *SocialService
	notifications *NotificationService
}

func newTestEnv(t *testing.T, name string) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notifier := &captureNotifier{}
	return &testEnv{
		db:            db,
		notifier:      notifier,
		posts:         NewPostService(postRepo, notifier),
		comments:      NewCommentService(commentRepo, postRepo, notifier),
		categories:    NewCategoryService(categoryRepo, postRepo),
		tags:          NewTagService(tagRepo),
		counters:      NewCounterService(postRepo, commentRepo, categoryRepo, tagRepo),
		social:        NewSocialService(followRepo, userRepo, notifier),
		notifications: NewNotificationService(notificationRepo, userRepo, nil),
	}
}

func (e *testEnv) createUser(t *testing.T, name string, admin bool) models.User {
	t.Helper()
	role := "user"
	if admin {
		role = "admin"
	}
	user := models.User{
		Email:       fmt.Sprintf("%s@example.com", name),
		DisplayName: name,
		Role:        role,
		Status:      "active",
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (e *testEnv) createCategory(t *testing.T, name string) models.Category {
	t.Helper()
	category, err := e.categories.Create(CreateCategoryInput{Name: name})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return *category
}

func (e *testEnv) createTag(t *testing.T, name string) models.Tag {
	t.Helper()
	tag, err := e.tags.Create(TagInput{Name: name})
	if err != nil {
		t.Fatalf("create tag failed: %v", err)
	}
	return *tag
}

func (e *testEnv) createPost(t *testing.T, author models.User, category models.Category, title string) *models.Post {
	t.Helper()
	post, err := e.posts.Create(Actor{ID: author.ID}, CreatePostInput{
		Title:      title,
		Content:    "<p>正文内容</p>",
		CategoryID: category.ID,
		Status:     "published",
	})
	if err != nil {
		t.Fatalf("create post failed: %v", err)
	}
	return post
}

func (e *testEnv) loadPost(t *testing.T, id uint) models.Post {
	t.Helper()
	var post models.Post
	if err := e.db.First(&post, id).Error; err != nil {
		t.Fatalf("load post failed: %v", err)
	}
	return post
}
