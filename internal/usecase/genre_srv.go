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

type GenreService interface {
	List(ctx context.Context, search string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.CatalogEntryResponse], error)
	Create(ctx context.Context, actor policy.Actor, req *request.CatalogEntryRequest) (*response.CatalogEntryResponse, error)
	Delete(ctx context.Context, actor policy.Actor, slug string) error
}

type genreService struct {
	genres repository.GenreRepository
	clock  utils.Clock
	log    *zap.Logger
}

func NewGenreService(genres repository.GenreRepository, clock utils.Clock, log *zap.Logger) GenreService {
	return &genreService{
		genres: genres,
		clock:  clock,
		log:    log.With(zap.String("service", "genre")),
	}
}

func (s *genreService) List(ctx context.Context, search string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.CatalogEntryResponse], error) {
	genres, err := s.genres.FindAll(ctx, search, page.Limit(), page.Offset())
	if err != nil {
		s.log.Error("Failed to list genres", zap.Error(err))
		return nil, fmt.Errorf("list genres: %w", err)
	}
	total, err := s.genres.CountAll(ctx, search)
	if err != nil {
		s.log.Error("Failed to count genres", zap.Error(err))
		return nil, fmt.Errorf("count genres: %w", err)
	}

	data := make([]response.CatalogEntryResponse, len(genres))
	for i, g := range genres {
		data[i] = response.GenreToResponse(g)
	}
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *genreService) Create(ctx context.Context, actor policy.Actor, req *request.CatalogEntryRequest) (*response.CatalogEntryResponse, error) {
	if err := policy.Check(actor, policy.ActionCreate, policy.Collection(policy.KindGenre)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Create genre", req); err != nil {
		return nil, err
	}

	genre := &entity.Genre{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: s.clock.Now()},
		Name:       req.Name,
		Slug:       req.Slug,
	}
	if err := s.genres.Create(ctx, genre); err != nil {
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		s.log.Error("Failed to create genre", zap.Error(err), zap.String("slug", req.Slug))
		return nil, fmt.Errorf("create genre: %w", err)
	}

	s.log.Info("Genre created", zap.String("slug", genre.Slug))
	resp := response.GenreToResponse(genre)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, actor policy.Actor, slug string) error {
	if err := policy.Check(actor, policy.ActionDelete, policy.Collection(policy.KindGenre)); err != nil {
		return err
	}

	if err := s.genres.DeleteBySlug(ctx, slug); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("genre %s not found", slug)
		}
		s.log.Error("Failed to delete genre", zap.Error(err), zap.String("slug", slug))
		return fmt.Errorf("delete genre: %w", err)
	}

	s.log.Info("Genre deleted", zap.String("slug", slug))
	return nil
}
