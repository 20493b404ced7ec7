package service

import (
	"github.com/wenji-next/internal/models"
	"github.com/wenji-next/internal/repository"
)

// TagService 标签业务服务
type TagService struct {
	repo repository.TagRepository
}

// NewTagService 创建标签服务
func NewTagService(repo repository.TagRepository) *TagService {
	return &TagService{repo: repo}
}

// TagInput 创建/更新标签输入
type TagInput struct {
	Name string
}

// List 标签列表
func (s *TagService) List() ([]models.Tag, error) {
	tags, err := s.repo.List()
	if err != nil {
		return nil, wrapInternal(err)
	}
	return tags, nil
}

// Create 创建标签
func (s *TagService) Create(input TagInput) (*models.Tag, error) {
	slug := slugify(input.Name)
	if err := s.checkNameAndSlug(input.Name, slug, nil); err != nil {
		return nil, err
	}

	tag := models.Tag{Name: input.Name, Slug: slug}
	if err := s.repo.Create(&tag); err != nil {
		return nil, wrapInternal(err)
	}
	return &tag, nil
}

// Update 更新标签，名称变化时重新派生 slug
func (s *TagService) Update(id uint, input TagInput) (*models.Tag, error) {
	tag, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if tag == nil {
		return nil, ErrNotFound
	}

	slug := tag.Slug
	if input.Name != tag.Name {
		slug = slugify(input.Name)
	}
	if err := s.checkNameAndSlug(input.Name, slug, &id); err != nil {
		return nil, err
	}

	tag.Name = input.Name
	tag.Slug = slug
	if err := s.repo.Update(tag); err != nil {
		return nil, wrapInternal(err)
	}
	return tag, nil
}

// Delete 删除标签，仍被文章引用时拒绝
func (s *TagService) Delete(id uint) error {
	tag, err := s.repo.GetByID(id)
	if err != nil {
		return wrapInternal(err)
	}
	if tag == nil {
		return ErrNotFound
	}

	posts, err := s.repo.CountPosts(id)
	if err != nil {
		return wrapInternal(err)
	}
	if posts > 0 {
		return ErrTagInUse
	}
	return wrapInternal(s.repo.Delete(id))
}

func (s *TagService) checkNameAndSlug(name, slug string, excludeID *uint) error {
	count, err := s.repo.CountByName(name, excludeID)
	if err != nil {
		return wrapInternal(err)
	}
	if count > 0 {
		return ErrNameExists
	}
	count, err = s.repo.CountBySlug(slug, excludeID)
	if err != nil {
		return wrapInternal(err)
	}
	if count > 0 {
		return ErrSlugExists
	}
	return nil
}
