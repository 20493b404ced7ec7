package service

import (
	"github.com/wenji-next/internal/constants"
	"github.com/wenji-next/internal/models"
	"github.com/wenji-next/internal/repository"

	"gorm.io/gorm"
)

// CategoryService 分类树业务服务
type CategoryService struct {
	repo     repository.CategoryRepository
	postRepo repository.PostRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository, postRepo repository.PostRepository) *CategoryService {
	return &CategoryService{repo: repo, postRepo: postRepo}
}

// CreateCategoryInput 创建/更新分类输入
type CreateCategoryInput struct {
	Name      string
	ParentID  *uint
	SortOrder int
}

// ReorderCategoriesInput 重排输入。
// SetParent 为真时（即便 ParentID 为空）会把列出的分类整体挂到该父级下，
// 重排与换父是同一个操作的两个副作用。
type ReorderCategoriesInput struct {
	IDs       []uint
	ParentID  *uint
	SetParent bool
}

// CategoryNode 树形视图节点
type CategoryNode struct {
	models.Category
	Children []*CategoryNode `json:"children"`
}

// List 分类平铺列表
func (s *CategoryService) List() ([]models.Category, error) {
	categories, err := s.repo.List()
	if err != nil {
		return nil, wrapInternal(err)
	}
	return categories, nil
}

// Tree 分类树，同级按 sort_order 升序
func (s *CategoryService) Tree() ([]*CategoryNode, error) {
	categories, err := s.repo.List()
	if err != nil {
		return nil, wrapInternal(err)
	}

	nodes := make(map[uint]*CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &CategoryNode{Category: categories[i]}
	}
	var roots []*CategoryNode
	for i := range categories {
		node := nodes[categories[i].ID]
		if categories[i].ParentID != nil {
			if parent, ok := nodes[*categories[i].ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// Create 创建分类
func (s *CategoryService) Create(input CreateCategoryInput) (*models.Category, error) {
	if err := s.checkNameAndSlug(input.Name, slugify(input.Name), nil); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		parent, err := s.repo.GetByID(*input.ParentID)
		if err != nil {
			return nil, wrapInternal(err)
		}
		if parent == nil {
			return nil, ErrNotFound
		}
	}

	category := models.Category{
		Name:      input.Name,
		Slug:      slugify(input.Name),
		ParentID:  input.ParentID,
		SortOrder: input.SortOrder,
	}
	if err := s.repo.Create(&category); err != nil {
		return nil, wrapInternal(err)
	}
	return &category, nil
}

// Update 更新分类，换父时校验父链无环
func (s *CategoryService) Update(id uint, input CreateCategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if category == nil {
		return nil, ErrNotFound
	}

	slug := category.Slug
	if input.Name != category.Name {
		slug = slugify(input.Name)
	}
	if err := s.checkNameAndSlug(input.Name, slug, &id); err != nil {
		return nil, err
	}
	if err := s.checkParent(id, input.ParentID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"name":       input.Name,
		"slug":       slug,
		"parent_id":  input.ParentID,
		"sort_order": input.SortOrder,
	}
	if err := s.repo.UpdateFields(id, fields); err != nil {
		return nil, wrapInternal(err)
	}
	updated, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapInternal(err)
	}
	return updated, nil
}

// Delete 删除分类，存在子分类或文章时拒绝
func (s *CategoryService) Delete(id uint) error {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return wrapInternal(err)
	}
	if category == nil {
		return ErrNotFound
	}

	children, err := s.repo.CountChildren(id)
	if err != nil {
		return wrapInternal(err)
	}
	if children > 0 {
		return ErrCategoryInUse
	}
	posts, err := s.postRepo.CountByCategory(id)
	if err != nil {
		return wrapInternal(err)
	}
	if posts > 0 {
		return ErrCategoryInUse
	}
	return wrapInternal(s.repo.Delete(id))
}

// Reorder 重排（可选换父）。列表位置即 0 起的 sort_order；
// 整个操作在一个事务内，任何一条失败则全部回滚。
func (s *CategoryService) Reorder(input ReorderCategoriesInput) error {
	if len(input.IDs) == 0 {
		return nil
	}
	categories, err := s.repo.GetByIDs(input.IDs)
	if err != nil {
		return wrapInternal(err)
	}
	if len(categories) != len(input.IDs) {
		return ErrNotFound
	}

	if input.SetParent && input.ParentID != nil {
		parent, err := s.repo.GetByID(*input.ParentID)
		if err != nil {
			return wrapInternal(err)
		}
		if parent == nil {
			return ErrNotFound
		}
		for _, id := range input.IDs {
			if err := s.checkParent(id, input.ParentID); err != nil {
				return err
			}
		}
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewCategoryRepository(tx)
		for position, id := range input.IDs {
			fields := map[string]interface{}{"sort_order": position}
			if input.SetParent {
				fields["parent_id"] = input.ParentID
			}
			if err := txRepo.UpdateFields(id, fields); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapInternal(err)
}

// checkParent 校验 parentID 作为 id 的新父级是否合法：
// 父级存在、非自身、且 id 不在父级的祖先链上（防环）。
func (s *CategoryService) checkParent(id uint, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return ErrSelfParent
	}

	current := parentID
	for depth := 0; current != nil; depth++ {
		if depth >= constants.CategoryAncestorWalkLimit {
			return ErrCategoryCycle
		}
		ancestor, err := s.repo.GetByID(*current)
		if err != nil {
			return wrapInternal(err)
		}
		if ancestor == nil {
			return ErrNotFound
		}
		if ancestor.ID == id {
			return ErrCategoryCycle
		}
		current = ancestor.ParentID
	}
	return nil
}

func (s *CategoryService) checkNameAndSlug(name, slug string, excludeID *uint) error {
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
