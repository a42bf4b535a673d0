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

type CommentService interface {
	List(ctx context.Context, titleID, reviewID string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error)
	Get(ctx context.Context, titleID, reviewID, commentID string) (*response.CommentResponse, error)
	Create(ctx context.Context, actor policy.Actor, titleID, reviewID string, req *request.CommentRequest) (*response.CommentResponse, error)
	Update(ctx context.Context, actor policy.Actor, titleID, reviewID, commentID string, req *request.CommentRequest) (*response.CommentResponse, error)
	Delete(ctx context.Context, actor policy.Actor, titleID, reviewID, commentID string) error
}

type commentService struct {
	repo  *repository.Repository
	clock utils.Clock
	log   *zap.Logger
}

func NewCommentService(repo *repository.Repository, clock utils.Clock, log *zap.Logger) CommentService {
	return &commentService{
		repo:  repo,
		clock: clock,
		log:   log.With(zap.String("service", "comment")),
	}
}

func (s *commentService) List(ctx context.Context, titleID, reviewID string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error) {
	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.Comment.FindByReviewID(ctx, review.ID, page.Limit(), page.Offset())
	if err != nil {
		s.log.Error("Failed to list comments", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("list comments: %w", err)
	}
	total, err := s.repo.Comment.CountByReviewID(ctx, review.ID)
	if err != nil {
		s.log.Error("Failed to count comments", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("count comments: %w", err)
	}

	data := make([]response.CommentResponse, len(comments))
	for i, c := range comments {
		data[i] = response.CommentToResponse(c)
	}
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID string) (*response.CommentResponse, error) {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, actor policy.Actor, titleID, reviewID string, req *request.CommentRequest) (*response.CommentResponse, error) {
	if err := policy.Check(actor, policy.ActionCreate, policy.Collection(policy.KindComment)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Create comment", req); err != nil {
		return nil, err
	}

	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		ID:             uuid.New(),
		ReviewID:       review.ID,
		AuthorID:       actor.ID,
		Text:           req.Text,
		PubDate:        s.clock.Now(),
		AuthorUsername: actor.Username,
	}
	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		if missing := missingReferenceError(err); missing != nil {
			return nil, missing
		}
		s.log.Error("Failed to create comment", zap.Error(err), zap.String("review_id", reviewID))
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.log.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("review_id", reviewID),
		zap.String("author", actor.Username),
	)

	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, actor policy.Actor, titleID, reviewID, commentID string, req *request.CommentRequest) (*response.CommentResponse, error) {
	if !actor.Authenticated() {
		return nil, apperror.ErrAuthenticationRequired
	}
	if err := validateRequest(s.log, "Update comment", req); err != nil {
		return nil, err
	}

	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionUpdate, policy.Owned(policy.KindComment, comment.AuthorID)); err != nil {
		return nil, err
	}

	comment.Text = req.Text
	if err := s.repo.Comment.Update(ctx, comment); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("comment %s not found", commentID)
		}
		s.log.Error("Failed to update comment", zap.Error(err), zap.String("comment_id", commentID))
		return nil, fmt.Errorf("update comment: %w", err)
	}

	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, actor policy.Actor, titleID, reviewID, commentID string) error {
	if !actor.Authenticated() {
		return apperror.ErrAuthenticationRequired
	}

	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := policy.Check(actor, policy.ActionDelete, policy.Owned(policy.KindComment, comment.AuthorID)); err != nil {
		return err
	}

	if err := s.repo.Comment.Delete(ctx, comment.ID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("comment %s not found", commentID)
		}
		s.log.Error("Failed to delete comment", zap.Error(err), zap.String("comment_id", commentID))
		return fmt.Errorf("delete comment: %w", err)
	}

	s.log.Info("Comment deleted", zap.String("comment_id", commentID), zap.String("by", actor.Username))
	return nil
}

// find loads a comment scoped to both its review and that review's title.
func (s *commentService) find(ctx context.Context, titleID, reviewID, commentID string) (*entity.Comment, error) {
	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	cid, err := parseID(commentID, "comment")
	if err != nil {
		return nil, err
	}

	comment, err := s.repo.Comment.FindByID(ctx, cid)
	if err != nil {
		s.log.Error("Failed to get comment", zap.Error(err), zap.String("comment_id", commentID))
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if comment == nil || comment.ReviewID != review.ID {
		return nil, apperror.NotFound("comment %s not found", commentID)
	}
	return comment, nil
}
