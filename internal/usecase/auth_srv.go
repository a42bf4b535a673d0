package usecase

import (
	"context"
	"fmt"
	"strings"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/dto/response"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/apperror"
	"yamdb-api/pkg/token"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Signup(ctx context.Context, req *request.SignupRequest) (*response.SignupResponse, error)
	// ReissueCode is the admin-assisted path for sending a fresh code to an existing account.
	ReissueCode(ctx context.Context, actor policy.Actor, req *request.SignupRequest) (*response.SignupResponse, error)
	ExchangeToken(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error)
	Refresh(ctx context.Context, req *request.RefreshRequest) (*response.TokenResponse, error)
	Logout(ctx context.Context, actor policy.Actor, accessJTI string, req *request.LogoutRequest) error
}

type authService struct {
	users  repository.UserRepository
	infra  Infra
	config *utils.Config
	log    *zap.Logger
}

func NewAuthService(users repository.UserRepository, infra Infra, config *utils.Config, log *zap.Logger) AuthService {
	if infra.Clock == nil {
		infra.Clock = utils.SystemClock{}
	}
	return &authService{
		users:  users,
		infra:  infra,
		config: config,
		log:    log.With(zap.String("service", "auth")),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Signup(ctx context.Context, req *request.SignupRequest) (*response.SignupResponse, error) {
	if err := validateRequest(s.log, "Signup", req); err != nil {
		s.infra.Metrics.AuthEvent("signup", "invalid")
		return nil, err
	}
	email := normalizeEmail(req.Email)

	byName, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to look up username", zap.Error(err))
		return nil, fmt.Errorf("find user by username: %w", err)
	}

	// same username and email: the account exists, just send a new code
	if byName != nil && byName.Email == email {
		if err := s.issueCode(ctx, byName); err != nil {
			return nil, err
		}
		s.infra.Metrics.AuthEvent("signup", "reissued")
		return &response.SignupResponse{Username: byName.Username, Email: byName.Email}, nil
	}
	if byName != nil {
		s.infra.Metrics.AuthEvent("signup", "conflict")
		return nil, apperror.FieldInvalid("username", "A user with that username already exists")
	}

	byEmail, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to look up email", zap.Error(err))
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if byEmail != nil {
		s.infra.Metrics.AuthEvent("signup", "conflict")
		return nil, apperror.FieldInvalid("email", "A user with that email already exists")
	}

	now := s.infra.Clock.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username: req.Username,
		Email:    email,
		Role:     entity.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if dup := duplicateError(err); dup != nil {
			s.infra.Metrics.AuthEvent("signup", "conflict")
			return nil, dup
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("username", req.Username))
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.issueCode(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	s.infra.Metrics.AuthEvent("signup", "created")

	return &response.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

func (s *authService) ReissueCode(ctx context.Context, actor policy.Actor, req *request.SignupRequest) (*response.SignupResponse, error) {
	if err := policy.Check(actor, policy.ActionUpdate, policy.Collection(policy.KindUser)); err != nil {
		return nil, err
	}
	if err := validateRequest(s.log, "Reissue code", req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to look up username", zap.Error(err))
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user %s not found", req.Username)
	}
	if user.Email != normalizeEmail(req.Email) {
		return nil, apperror.FieldInvalid("email", "Email does not match this user")
	}

	if err := s.issueCode(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("Confirmation code reissued",
		zap.String("username", user.Username),
		zap.String("by", actor.Username),
	)
	s.infra.Metrics.AuthEvent("reissue", "ok")

	return &response.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

// issueCode replaces any outstanding code and hands the plaintext to the notifier.
// Delivery runs in the background; a failure there is only logged.
func (s *authService) issueCode(ctx context.Context, user *entity.User) error {
	code, err := utils.GenerateConfirmationCode(s.config.Confirmation.Length)
	if err != nil {
		s.log.Error("Failed to generate confirmation code", zap.Error(err))
		return err
	}
	hash, err := utils.HashCode(code)
	if err != nil {
		s.log.Error("Failed to hash confirmation code", zap.Error(err))
		return err
	}

	issuedAt := s.infra.Clock.Now()
	if err := s.users.SetConfirmationCode(ctx, user.ID, hash, &issuedAt); err != nil {
		s.log.Error("Failed to store confirmation code", zap.Error(err), zap.String("username", user.Username))
		return fmt.Errorf("store confirmation code: %w", err)
	}

	email := user.Email
	notifyCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.infra.Mailer.SendConfirmationCode(notifyCtx, email, code); err != nil {
			s.log.Warn("Failed to deliver confirmation code", zap.Error(err), zap.String("email", email))
		}
	}()

	return nil
}

func (s *authService) ExchangeToken(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error) {
	if err := validateRequest(s.log, "Token exchange", req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to look up username", zap.Error(err))
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	if user == nil {
		s.infra.Metrics.AuthEvent("token", "unknown_user")
		return nil, apperror.NotFound("user %s not found", req.Username)
	}

	if !s.codeValid(user, req.ConfirmationCode) {
		s.log.Warn("Invalid confirmation code", zap.String("username", user.Username))
		s.infra.Metrics.AuthEvent("token", "invalid_code")
		return nil, apperror.ErrInvalidCode
	}

	// single-use: the code is cleared only if it is still the one just verified,
	// so concurrent exchanges of the same code have exactly one winner
	var consume string
	if s.config.Confirmation.SingleUse {
		consume = user.ConfirmationCode
	}
	if err := s.users.MarkConfirmed(ctx, user.ID, consume); err != nil {
		if isNotFound(err) {
			s.log.Warn("Confirmation code already consumed", zap.String("username", user.Username))
			s.infra.Metrics.AuthEvent("token", "invalid_code")
			return nil, apperror.ErrInvalidCode
		}
		s.log.Error("Failed to confirm user", zap.Error(err), zap.String("username", user.Username))
		return nil, fmt.Errorf("confirm user: %w", err)
	}

	pair, err := s.infra.Tokens.Issue(user.ID)
	if err != nil {
		s.log.Error("Failed to issue tokens", zap.Error(err))
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.log.Info("Tokens issued", zap.String("username", user.Username))
	s.infra.Metrics.AuthEvent("token", "ok")

	resp := response.TokenToResponse(pair)
	return &resp, nil
}

// codeValid checks the hash and, when configured, the code's age.
func (s *authService) codeValid(user *entity.User, code string) bool {
	if !utils.CheckCodeHash(code, user.ConfirmationCode) {
		return false
	}
	ttl := s.config.Confirmation.TTL()
	if ttl > 0 {
		if user.CodeIssuedAt == nil || s.infra.Clock.Now().After(user.CodeIssuedAt.Add(ttl)) {
			return false
		}
	}
	return true
}

func (s *authService) Refresh(ctx context.Context, req *request.RefreshRequest) (*response.TokenResponse, error) {
	if err := validateRequest(s.log, "Refresh", req); err != nil {
		return nil, err
	}

	claims, err := s.infra.Tokens.Parse(req.Refresh, token.TypeRefresh)
	if err != nil {
		s.infra.Metrics.AuthEvent("refresh", "invalid")
		return nil, apperror.ErrInvalidToken
	}
	userID, _ := claims.UserID()

	// rotation: the first Revoke wins, a replayed refresh token loses
	first, err := s.infra.Revoked.Revoke(ctx, claims.ID, claims.Remaining(s.infra.Tokens.Now()))
	if err != nil {
		s.log.Error("Failed to revoke refresh token", zap.Error(err))
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !first {
		s.log.Warn("Refresh token replayed", zap.String("user_id", userID.String()))
		s.infra.Metrics.AuthEvent("refresh", "replayed")
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to load user", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.infra.Metrics.AuthEvent("refresh", "unknown_user")
		return nil, apperror.ErrInvalidToken
	}

	pair, err := s.infra.Tokens.Issue(user.ID)
	if err != nil {
		s.log.Error("Failed to issue tokens", zap.Error(err))
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	s.infra.Metrics.AuthEvent("refresh", "ok")

	resp := response.TokenToResponse(pair)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, actor policy.Actor, accessJTI string, req *request.LogoutRequest) error {
	if !actor.Authenticated() || accessJTI == "" {
		return apperror.ErrAuthenticationRequired
	}

	// check the refresh token before revoking anything
	var refresh *token.Claims
	if req != nil && req.Refresh != "" {
		claims, err := s.infra.Tokens.Parse(req.Refresh, token.TypeRefresh)
		if err != nil {
			return apperror.ErrInvalidToken
		}
		if owner, _ := claims.UserID(); owner != actor.ID {
			s.log.Warn("Logout with foreign refresh token", zap.String("username", actor.Username))
			return apperror.ErrInvalidToken
		}
		refresh = claims
	}

	if _, err := s.infra.Revoked.Revoke(ctx, accessJTI, s.config.JWT.AccessTTL); err != nil {
		s.log.Error("Failed to revoke access token", zap.Error(err))
		return fmt.Errorf("revoke access token: %w", err)
	}

	if refresh != nil {
		if _, err := s.infra.Revoked.Revoke(ctx, refresh.ID, refresh.Remaining(s.infra.Tokens.Now())); err != nil {
			s.log.Error("Failed to revoke refresh token", zap.Error(err))
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}

	s.log.Info("User logged out", zap.String("username", actor.Username))
	s.infra.Metrics.AuthEvent("logout", "ok")
	return nil
}
