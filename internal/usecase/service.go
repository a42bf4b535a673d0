package usecase

import (
	"yamdb-api/internal/data/repository"
	"yamdb-api/pkg/mailer"
	"yamdb-api/pkg/metrics"
	"yamdb-api/pkg/token"
	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	User     UserService
	Category CategoryService
	Genre    GenreService
	Title    TitleService
	Review   ReviewService
	Comment  CommentService
}

// Infra groups the collaborators that are not repositories.
type Infra struct {
	Tokens  *token.Issuer
	Revoked token.RevocationStore
	Mailer  mailer.Notifier
	Clock   utils.Clock
	Metrics *metrics.Metrics // optional
}

func NewService(repo *repository.Repository, infra Infra, config *utils.Config, log *zap.Logger) *Service {
	if infra.Clock == nil {
		infra.Clock = utils.SystemClock{}
	}

	return &Service{
		Auth:     NewAuthService(repo.User, infra, config, log),
		User:     NewUserService(repo.User, infra.Clock, log),
		Category: NewCategoryService(repo.Category, infra.Clock, log),
		Genre:    NewGenreService(repo.Genre, infra.Clock, log),
		Title:    NewTitleService(repo, infra.Clock, log),
		Review:   NewReviewService(repo, infra.Clock, log),
		Comment:  NewCommentService(repo, infra.Clock, log),
	}
}
