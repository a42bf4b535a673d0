package usecase

import (
	"context"
	"errors"
	"testing"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/apperror"
)

func TestUserAdminConsole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "admin", entity.RoleAdmin)
	moderator := env.addUser(t, "mod", entity.RoleModerator)
	page := &request.PaginatedRequest{Page: 1, PerPage: 10}

	if _, err := env.svc.User.List(ctx, moderator, "", page); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("moderator list error = %v", err)
	}

	created, err := env.svc.User.Create(ctx, admin, &request.CreateUserRequest{Username: "rita", Email: "rita@example.com", Role: "moderator"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Role != entity.RoleModerator {
		t.Fatalf("role = %s", created.Role)
	}

	if _, err := env.svc.User.Create(ctx, admin, &request.CreateUserRequest{Username: "me", Email: "me@example.com"}); apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("reserved username error = %v", err)
	}
	if _, err := env.svc.User.Create(ctx, admin, &request.CreateUserRequest{Username: "rita", Email: "r2@example.com"}); apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("duplicate username error = %v", err)
	}
	if _, err := env.svc.User.Create(ctx, admin, &request.CreateUserRequest{Username: "x", Email: "x@example.com", Role: "superuser"}); apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("unknown role error = %v", err)
	}

	list, err := env.svc.User.List(ctx, admin, "rit", page)
	if err != nil || len(list.Data) != 1 {
		t.Fatalf("search = %+v, err = %v", list, err)
	}

	updated, err := env.svc.User.Update(ctx, admin, "rita", &request.UpdateUserRequest{Role: strPtr("user"), Bio: strPtr("hi")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Role != entity.RoleUser || updated.Bio != "hi" {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := env.svc.User.Update(ctx, admin, "rita", &request.UpdateUserRequest{Username: strPtr("Me")}); apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("rename to reserved error = %v", err)
	}

	if err := env.svc.User.Delete(ctx, admin, "rita"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := env.svc.User.Get(ctx, admin, "rita"); apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("get deleted error = %v", err)
	}
}

func TestProfileCannotChangeRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addUser(t, "sam", entity.RoleUser)

	if _, err := env.svc.User.GetProfile(ctx, policy.Anonymous()); !errors.Is(err, apperror.ErrAuthenticationRequired) {
		t.Fatalf("anonymous profile error = %v", err)
	}

	updated, err := env.svc.User.UpdateProfile(ctx, actor, &request.UpdateProfileRequest{FirstName: strPtr("Samuel"), Email: strPtr("SAM@example.org")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.FirstName != "Samuel" || updated.Email != "sam@example.org" {
		t.Fatalf("profile = %+v", updated)
	}
	if updated.Username != "sam" || updated.Role != entity.RoleUser {
		t.Fatalf("username or role changed: %+v", updated)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "admin", entity.RoleAdmin)
	author := env.addUser(t, "tom", entity.RoleUser)
	title := createTitle(t, env, "Frenzy")

	review, err := env.svc.Review.Create(ctx, author, title.ID, &request.CreateReviewRequest{Text: "meh", Score: 5})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := env.svc.Comment.Create(ctx, admin, title.ID, review.ID, &request.CommentRequest{Text: "noted"}); err != nil {
		t.Fatalf("comment: %v", err)
	}

	if err := env.svc.User.Delete(ctx, admin, "tom"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, reviews, comments := env.store.Counts()
	if reviews != 0 || comments != 0 {
		t.Fatalf("reviews=%d comments=%d after author delete", reviews, comments)
	}
}
