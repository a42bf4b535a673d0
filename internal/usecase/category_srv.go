package usecase

import (
	"context"
	"fmt"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/dto/response"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/apperror"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryService interface {
	List(ctx context.Context, search string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.CatalogEntryResponse], error)
	Create(ctx context.Context, actor policy.Actor, req *request.CatalogEntryRequest) (*response.CatalogEntryResponse, error)
	Delete(ctx context.Context, actor policy.Actor, slug string) error
}

type categoryService struct {
	categories repository.CategoryRepository
	clock      utils.Clock
	log        *zap.Logger
}

func NewCategoryService(categories repository.CategoryRepository, clock utils.Clock, log *zap.Logger) CategoryService {
	return &categoryService{
		categories: categories,
		clock:      clock,
		log:        log.With(zap.String("service", "category")),
	}
}

func (s *categoryService) List(ctx context.Context, search string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.CatalogEntryResponse], error) {
	categories, err := s.categories.FindAll(ctx, search, page.Limit(), page.Offset())
	if err != nil {
		s.log.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("list categories: %w", err)
	}
	total, err := s.categories.CountAll(ctx, search)
	if err != nil {
		s.log.Error("Failed to count categories", zap.Error(err))
		return nil, fmt.Errorf("count categories: %w", err)
	}

	data := make([]response.CatalogEntryResponse, len(categories))
	for i, c := range categories {
		data[i] = response.CategoryToResponse(c)
	}
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *categoryService) Create(ctx context.Context, actor policy.Actor, req *request.CatalogEntryRequest) (*response.CatalogEntryResponse, error) {
	if err := policy.Check(actor, policy.ActionCreate, policy.Collection(policy.KindCategory)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Create category", req); err != nil {
		return nil, err
	}

	category := &entity.Category{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: s.clock.Now()},
		Name:       req.Name,
		Slug:       req.Slug,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		s.log.Error("Failed to create category", zap.Error(err), zap.String("slug", req.Slug))
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.log.Info("Category created", zap.String("slug", category.Slug))
	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, actor policy.Actor, slug string) error {
	if err := policy.Check(actor, policy.ActionDelete, policy.Collection(policy.KindCategory)); err != nil {
		return err
	}

	if err := s.categories.DeleteBySlug(ctx, slug); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("category %s not found", slug)
		}
		s.log.Error("Failed to delete category", zap.Error(err), zap.String("slug", slug))
		return fmt.Errorf("delete category: %w", err)
	}

	s.log.Info("Category deleted", zap.String("slug", slug))
	return nil
}
