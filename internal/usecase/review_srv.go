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

type ReviewService interface {
	List(ctx context.Context, titleID string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	Get(ctx context.Context, titleID, reviewID string) (*response.ReviewResponse, error)
	Create(ctx context.Context, actor policy.Actor, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	Update(ctx context.Context, actor policy.Actor, titleID, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	Delete(ctx context.Context, actor policy.Actor, titleID, reviewID string) error
}

type reviewService struct {
	repo  *repository.Repository
	clock utils.Clock
	log   *zap.Logger
}

func NewReviewService(repo *repository.Repository, clock utils.Clock, log *zap.Logger) ReviewService {
	return &reviewService{
		repo:  repo,
		clock: clock,
		log:   log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) List(ctx context.Context, titleID string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	title, err := findTitle(ctx, s.repo, s.log, titleID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.Review.FindByTitleID(ctx, title.ID, page.Limit(), page.Offset())
	if err != nil {
		s.log.Error("Failed to list reviews", zap.Error(err), zap.String("title_id", titleID))
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	total, err := s.repo.Review.CountByTitleID(ctx, title.ID)
	if err != nil {
		s.log.Error("Failed to count reviews", zap.Error(err), zap.String("title_id", titleID))
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	data := make([]response.ReviewResponse, len(reviews))
	for i, r := range reviews {
		data[i] = response.ReviewToResponse(r)
	}
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID string) (*response.ReviewResponse, error) {
	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) Create(ctx context.Context, actor policy.Actor, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	if err := policy.Check(actor, policy.ActionCreate, policy.Collection(policy.KindReview)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Create review", req); err != nil {
		return nil, err
	}

	title, err := findTitle(ctx, s.repo, s.log, titleID)
	if err != nil {
		return nil, err
	}

	review := &entity.Review{
		ID:             uuid.New(),
		TitleID:        title.ID,
		AuthorID:       actor.ID,
		Text:           req.Text,
		Score:          req.Score,
		PubDate:        s.clock.Now(),
		AuthorUsername: actor.Username,
	}

	// one review per (title, author) is the table's unique key; no read-then-write here
	if err := s.repo.Review.Create(ctx, review); err != nil {
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		if missing := missingReferenceError(err); missing != nil {
			return nil, missing
		}
		s.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("title_id", titleID),
			zap.String("author", actor.Username),
		)
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("title_id", titleID),
		zap.String("author", actor.Username),
		zap.Int("score", review.Score),
	)

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, actor policy.Actor, titleID, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	if !actor.Authenticated() {
		return nil, apperror.ErrAuthenticationRequired
	}
	if err := validateRequest(s.log, "Update review", req); err != nil {
		return nil, err
	}

	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionUpdate, policy.Owned(policy.KindReview, review.AuthorID)); err != nil {
		s.log.Warn("Review update denied", zap.String("review_id", reviewID), zap.String("actor", actor.Username))
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	if err := s.repo.Review.Update(ctx, review); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("review %s not found", reviewID)
		}
		s.log.Error("Failed to update review", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.log.Info("Review updated", zap.String("review_id", reviewID), zap.String("by", actor.Username))

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, actor policy.Actor, titleID, reviewID string) error {
	if !actor.Authenticated() {
		return apperror.ErrAuthenticationRequired
	}

	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := policy.Check(actor, policy.ActionDelete, policy.Owned(policy.KindReview, review.AuthorID)); err != nil {
		s.log.Warn("Review delete denied", zap.String("review_id", reviewID), zap.String("actor", actor.Username))
		return err
	}

	if err := s.repo.Review.Delete(ctx, review.ID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("review %s not found", reviewID)
		}
		s.log.Error("Failed to delete review", zap.Error(err), zap.String("review_id", reviewID))
		return fmt.Errorf("delete review: %w", err)
	}

	s.log.Info("Review deleted", zap.String("review_id", reviewID), zap.String("by", actor.Username))
	return nil
}

// findTitle resolves the title a nested route is scoped to.
func findTitle(ctx context.Context, repo *repository.Repository, log *zap.Logger, titleID string) (*entity.Title, error) {
	id, err := parseID(titleID, "title")
	if err != nil {
		return nil, err
	}

	title, err := repo.Title.FindByID(ctx, id)
	if err != nil {
		log.Error("Failed to get title", zap.Error(err), zap.String("title_id", titleID))
		return nil, fmt.Errorf("get title: %w", err)
	}
	if title == nil {
		return nil, apperror.NotFound("title %s not found", titleID)
	}
	return title, nil
}

// findReview loads a review and checks it belongs to the title in the path.
func findReview(ctx context.Context, repo *repository.Repository, log *zap.Logger, titleID, reviewID string) (*entity.Review, error) {
	tid, err := parseID(titleID, "title")
	if err != nil {
		return nil, err
	}
	rid, err := parseID(reviewID, "review")
	if err != nil {
		return nil, err
	}

	review, err := repo.Review.FindByID(ctx, rid)
	if err != nil {
		log.Error("Failed to get review", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil || review.TitleID != tid {
		return nil, apperror.NotFound("review %s not found", reviewID)
	}
	return review, nil
}
