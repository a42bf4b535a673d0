package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

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

type TitleService interface {
	List(ctx context.Context, query *request.TitleQuery, page *request.PaginatedRequest) (*response.PaginatedResponse[response.TitleResponse], error)
	Get(ctx context.Context, titleID string) (*response.TitleResponse, error)
	Create(ctx context.Context, actor policy.Actor, req *request.CreateTitleRequest) (*response.TitleWriteResponse, error)
	Update(ctx context.Context, actor policy.Actor, titleID string, req *request.UpdateTitleRequest) (*response.TitleWriteResponse, error)
	Delete(ctx context.Context, actor policy.Actor, titleID string) error
}

type titleService struct {
	repo  *repository.Repository
	clock utils.Clock
	log   *zap.Logger
}

func NewTitleService(repo *repository.Repository, clock utils.Clock, log *zap.Logger) TitleService {
	return &titleService{
		repo:  repo,
		clock: clock,
		log:   log.With(zap.String("service", "title")),
	}
}

func (s *titleService) List(ctx context.Context, query *request.TitleQuery, page *request.PaginatedRequest) (*response.PaginatedResponse[response.TitleResponse], error) {
	filter := repository.TitleFilter{}
	if query != nil {
		filter = repository.TitleFilter{
			Name:     strings.TrimSpace(query.Name),
			Category: strings.TrimSpace(query.Category),
			Genre:    strings.TrimSpace(query.Genre),
			Year:     query.Year,
		}
	}

	titles, err := s.repo.Title.FindAll(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		s.log.Error("Failed to list titles", zap.Error(err))
		return nil, fmt.Errorf("list titles: %w", err)
	}
	total, err := s.repo.Title.CountAll(ctx, filter)
	if err != nil {
		s.log.Error("Failed to count titles", zap.Error(err))
		return nil, fmt.Errorf("count titles: %w", err)
	}

	if err := s.attachGenres(ctx, titles...); err != nil {
		return nil, err
	}

	data := make([]response.TitleResponse, len(titles))
	for i, t := range titles {
		data[i] = response.TitleToResponse(t)
	}

	s.log.Debug("Titles listed", zap.Int("count", len(titles)), zap.Int64("total", total))
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *titleService) Get(ctx context.Context, titleID string) (*response.TitleResponse, error) {
	title, err := s.load(ctx, titleID)
	if err != nil {
		return nil, err
	}

	resp := response.TitleToResponse(title)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, actor policy.Actor, req *request.CreateTitleRequest) (*response.TitleWriteResponse, error) {
	if err := policy.Check(actor, policy.ActionCreate, policy.Collection(policy.KindTitle)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Create title", req); err != nil {
		return nil, err
	}
	if err := s.checkYear(*req.Year); err != nil {
		return nil, err
	}

	genres, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}
	category, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	title := &entity.Title{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
	}
	if category != nil {
		title.CategoryID = &category.ID
	}

	if err := s.repo.Title.Create(ctx, title, genreIDs(genres)); err != nil {
		if missing := missingReferenceError(err); missing != nil {
			return nil, missing
		}
		s.log.Error("Failed to create title", zap.Error(err), zap.String("name", req.Name))
		return nil, fmt.Errorf("create title: %w", err)
	}

	title.Category = category
	title.Genres = genres

	s.log.Info("Title created",
		zap.String("title_id", title.ID.String()),
		zap.String("name", title.Name),
		zap.Int("genres", len(genres)),
	)

	resp := response.TitleToWriteResponse(title)
	return &resp, nil
}

func (s *titleService) Update(ctx context.Context, actor policy.Actor, titleID string, req *request.UpdateTitleRequest) (*response.TitleWriteResponse, error) {
	if err := policy.Check(actor, policy.ActionUpdate, policy.Collection(policy.KindTitle)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Update title", req); err != nil {
		return nil, err
	}

	title, err := s.load(ctx, titleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		if err := s.checkYear(*req.Year); err != nil {
			return nil, err
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = req.Description
	}
	if req.Category != nil {
		category, err := s.resolveCategory(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		title.Category = category
		title.CategoryID = &category.ID
	}

	// nil keeps the current links
	var links []uuid.UUID
	if req.Genre != nil {
		genres, err := s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
		links = genreIDs(genres)
	}

	title.UpdatedAt = s.clock.Now()
	if err := s.repo.Title.Update(ctx, title, links); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("title %s not found", titleID)
		}
		if missing := missingReferenceError(err); missing != nil {
			return nil, missing
		}
		s.log.Error("Failed to update title", zap.Error(err), zap.String("title_id", titleID))
		return nil, fmt.Errorf("update title: %w", err)
	}

	s.log.Info("Title updated", zap.String("title_id", titleID))

	resp := response.TitleToWriteResponse(title)
	return &resp, nil
}

func (s *titleService) Delete(ctx context.Context, actor policy.Actor, titleID string) error {
	if err := policy.Check(actor, policy.ActionDelete, policy.Collection(policy.KindTitle)); err != nil {
		return err
	}

	id, err := parseID(titleID, "title")
	if err != nil {
		return err
	}

	if err := s.repo.Title.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("title %s not found", titleID)
		}
		s.log.Error("Failed to delete title", zap.Error(err), zap.String("title_id", titleID))
		return fmt.Errorf("delete title: %w", err)
	}

	s.log.Info("Title deleted", zap.String("title_id", titleID))
	return nil
}

// load reads one title with category, genres and rating populated.
func (s *titleService) load(ctx context.Context, titleID string) (*entity.Title, error) {
	id, err := parseID(titleID, "title")
	if err != nil {
		return nil, err
	}

	title, err := s.repo.Title.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get title", zap.Error(err), zap.String("title_id", titleID))
		return nil, fmt.Errorf("get title: %w", err)
	}
	if title == nil {
		return nil, apperror.NotFound("title %s not found", titleID)
	}

	if err := s.attachGenres(ctx, title); err != nil {
		return nil, err
	}
	return title, nil
}

func (s *titleService) attachGenres(ctx context.Context, titles ...*entity.Title) error {
	if len(titles) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}

	byTitle, err := s.repo.Genre.FindByTitleIDs(ctx, ids)
	if err != nil {
		s.log.Error("Failed to load title genres", zap.Error(err))
		return fmt.Errorf("load title genres: %w", err)
	}
	for _, t := range titles {
		t.Genres = byTitle[t.ID]
	}
	return nil
}

func (s *titleService) checkYear(year int) error {
	if current := s.clock.Now().Year(); year > current {
		return apperror.FieldInvalid("year", fmt.Sprintf("Year cannot be later than %d", current))
	}
	return nil
}

// resolveGenres maps slugs to genres. Every slug must exist.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]*entity.Genre, error) {
	unique := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if !seen[slug] {
			seen[slug] = true
			unique = append(unique, slug)
		}
	}
	if len(unique) == 0 {
		return []*entity.Genre{}, nil
	}

	genres, err := s.repo.Genre.FindBySlugs(ctx, unique)
	if err != nil {
		s.log.Error("Failed to resolve genres", zap.Error(err))
		return nil, fmt.Errorf("resolve genres: %w", err)
	}

	if len(genres) != len(unique) {
		found := make(map[string]bool, len(genres))
		for _, g := range genres {
			found[g.Slug] = true
		}
		var missing []string
		for _, slug := range unique {
			if !found[slug] {
				missing = append(missing, slug)
			}
		}
		sort.Strings(missing)
		return nil, apperror.FieldInvalid("genre", "Unknown genre: "+strings.Join(missing, ", "))
	}

	return genres, nil
}

// resolveCategory returns nil for a nil slug.
func (s *titleService) resolveCategory(ctx context.Context, slug *string) (*entity.Category, error) {
	if slug == nil {
		return nil, nil
	}

	category, err := s.repo.Category.FindBySlug(ctx, *slug)
	if err != nil {
		s.log.Error("Failed to resolve category", zap.Error(err))
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	if category == nil {
		return nil, apperror.FieldInvalid("category", "Unknown category: "+*slug)
	}
	return category, nil
}

func genreIDs(genres []*entity.Genre) []uuid.UUID {
	ids := make([]uuid.UUID, len(genres))
	for i, g := range genres {
		ids[i] = g.ID
	}
	return ids
}
