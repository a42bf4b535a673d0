package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"yamdb-api/internal/data/entity"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"
)

func TestBuildTitleWhere(t *testing.T) {
	year := 1965

	where, args := buildTitleWhere(TitleFilter{})
	if where != "" || len(args) != 0 {
		t.Fatalf("empty filter produced %q %v", where, args)
	}

	where, args = buildTitleWhere(TitleFilter{Name: "dune", Genre: "sci", Year: &year})
	if !strings.Contains(where, "t.name ILIKE $1") {
		t.Fatalf("name condition missing: %s", where)
	}
	if !strings.Contains(where, "g.slug ILIKE $2") {
		t.Fatalf("genre condition missing: %s", where)
	}
	if !strings.Contains(where, "t.year = $3") {
		t.Fatalf("year condition missing: %s", where)
	}
	if strings.Contains(where, "c.slug") {
		t.Fatalf("unset category filter rendered: %s", where)
	}
	if len(args) != 3 || args[0] != "%dune%" || args[1] != "%sci%" || args[2] != 1965 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	if got := containsPattern(`50%_off\`); got != `%50\%\_off\\%` {
		t.Fatalf("containsPattern() = %q", got)
	}
}

func TestTitleCreateRunsInTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())
	now := time.Now()
	title := &entity.Title{
		Base: entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name: "Dune",
		Year: 1965,
	}
	genreIDs := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO titles")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO title_genres")).
		WithArgs(title.ID, genreIDs).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), title, genreIDs); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestTitleCreateRollsBackOnLinkFailure(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())
	title := &entity.Title{Base: entity.Base{ID: uuid.New()}, Name: "Dune", Year: 1965}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO titles")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO title_genres")).
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	if err := repo.Create(context.Background(), title, []uuid.UUID{uuid.New()}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTitleUpdateKeepsGenresWhenNil(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())
	title := &entity.Title{Base: entity.Base{ID: uuid.New()}, Name: "Dune", Year: 1965}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE titles")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	if err := repo.Update(context.Background(), title, nil); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestTitleUpdateNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())
	title := &entity.Title{Base: entity.Base{ID: uuid.New()}, Name: "Dune", Year: 1965}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE titles")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	if err := repo.Update(context.Background(), title, []uuid.UUID{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTitleCountAllAppliesFilter(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM titles t LEFT JOIN categories c ON c.id = t.category_id WHERE c.slug ILIKE $1")).
		WithArgs("%film%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := repo.CountAll(context.Background(), TitleFilter{Category: "film"})
	if err != nil || count != 2 {
		t.Fatalf("CountAll() = %d, %v", count, err)
	}
}
