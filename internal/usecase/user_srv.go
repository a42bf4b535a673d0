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

type UserService interface {
	// Admin console
	List(ctx context.Context, actor policy.Actor, search string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	Create(ctx context.Context, actor policy.Actor, req *request.CreateUserRequest) (*response.UserResponse, error)
	Get(ctx context.Context, actor policy.Actor, username string) (*response.UserResponse, error)
	Update(ctx context.Context, actor policy.Actor, username string, req *request.UpdateUserRequest) (*response.UserResponse, error)
	Delete(ctx context.Context, actor policy.Actor, username string) error

	// Own profile
	GetProfile(ctx context.Context, actor policy.Actor) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, actor policy.Actor, req *request.UpdateProfileRequest) (*response.UserResponse, error)
}

type userService struct {
	users repository.UserRepository
	clock utils.Clock
	log   *zap.Logger
}

func NewUserService(users repository.UserRepository, clock utils.Clock, log *zap.Logger) UserService {
	return &userService{
		users: users,
		clock: clock,
		log:   log.With(zap.String("service", "user")),
	}
}

func (s *userService) List(ctx context.Context, actor policy.Actor, search string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	if err := policy.Check(actor, policy.ActionRead, policy.Collection(policy.KindUser)); err != nil {
		return nil, err
	}

	users, err := s.users.FindAll(ctx, search, page.Limit(), page.Offset())
	if err != nil {
		s.log.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}
	total, err := s.users.CountAll(ctx, search)
	if err != nil {
		s.log.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("count users: %w", err)
	}

	data := make([]response.UserResponse, len(users))
	for i, u := range users {
		data[i] = response.UserToResponse(u)
	}
	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *userService) Create(ctx context.Context, actor policy.Actor, req *request.CreateUserRequest) (*response.UserResponse, error) {
	if err := policy.Check(actor, policy.ActionCreate, policy.Collection(policy.KindUser)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Create user", req); err != nil {
		return nil, err
	}

	role := entity.RoleUser
	if req.Role != "" {
		parsed, err := entity.ParseRole(req.Role)
		if err != nil {
			return nil, apperror.FieldInvalid("role", err.Error())
		}
		role = parsed
	}

	now := s.clock.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:  req.Username,
		Email:     normalizeEmail(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		s.log.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User created by admin",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
		zap.String("by", actor.Username),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) findByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		s.log.Error("Failed to find user", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user %s not found", username)
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, actor policy.Actor, username string) (*response.UserResponse, error) {
	if err := policy.Check(actor, policy.ActionRead, policy.Collection(policy.KindUser)); err != nil {
		return nil, err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, actor policy.Actor, username string, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	if err := policy.Check(actor, policy.ActionUpdate, policy.Collection(policy.KindUser)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Update user", req); err != nil {
		return nil, err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Role != nil {
		role, err := entity.ParseRole(*req.Role)
		if err != nil {
			return nil, apperror.FieldInvalid("role", err.Error())
		}
		user.Role = role
	}
	applyProfile(user, req.Email, req.FirstName, req.LastName, req.Bio)

	return s.save(ctx, user)
}

func (s *userService) Delete(ctx context.Context, actor policy.Actor, username string) error {
	if err := policy.Check(actor, policy.ActionDelete, policy.Collection(policy.KindUser)); err != nil {
		return err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("user %s not found", username)
		}
		s.log.Error("Failed to delete user", zap.Error(err), zap.String("username", username))
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info("User deleted", zap.String("username", username), zap.String("by", actor.Username))
	return nil
}

func (s *userService) GetProfile(ctx context.Context, actor policy.Actor) (*response.UserResponse, error) {
	if err := policy.Check(actor, policy.ActionRead, policy.Collection(policy.KindProfile)); err != nil {
		return nil, err
	}

	user, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor policy.Actor, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	if err := policy.Check(actor, policy.ActionUpdate, policy.Collection(policy.KindProfile)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Update profile", req); err != nil {
		return nil, err
	}

	user, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}

	// username and role are not in the request type, so they stay as stored
	applyProfile(user, req.Email, req.FirstName, req.LastName, req.Bio)

	return s.save(ctx, user)
}

func (s *userService) self(ctx context.Context, actor policy.Actor) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		s.log.Error("Failed to load profile", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		// token outlived the account
		return nil, apperror.ErrAuthenticationRequired
	}
	return user, nil
}

func (s *userService) save(ctx context.Context, user *entity.User) (*response.UserResponse, error) {
	user.UpdatedAt = s.clock.Now()
	if err := s.users.Update(ctx, user); err != nil {
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		if isNotFound(err) {
			return nil, apperror.NotFound("user %s not found", user.Username)
		}
		s.log.Error("Failed to update user", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("update user: %w", err)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func applyProfile(user *entity.User, email, firstName, lastName, bio *string) {
	if email != nil {
		user.Email = normalizeEmail(*email)
	}
	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}
	if bio != nil {
		user.Bio = *bio
	}
}
