package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yamdb-api/internal/data/entity"
	"yamdb-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TitleFilter narrows title listings. Empty fields are ignored; the rest are AND-ed.
type TitleFilter struct {
	Name     string // substring of the title name, case-insensitive
	Category string // substring of the category slug, case-insensitive
	Genre    string // substring of any linked genre slug, case-insensitive
	Year     *int   // exact
}

type TitleRepository interface {
	// Create inserts the title and its genre links in one transaction.
	Create(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error)
	FindAll(ctx context.Context, filter TitleFilter, limit, offset int) ([]*entity.Title, error)
	CountAll(ctx context.Context, filter TitleFilter) (int64, error)
	// Update saves scalar fields; genre links are replaced only when genreIDs is non-nil.
	Update(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type titleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTitleRepository(db database.PgxIface, log *zap.Logger) TitleRepository {
	return &titleRepository{
		db:  db,
		log: log.With(zap.String("repository", "title")),
	}
}

const titleSelect = `
	SELECT t.id, t.name, t.year, t.description, t.category_id, t.created_at, t.updated_at,
	       c.name, c.slug,
	       (SELECT AVG(r.score)::float8 FROM reviews r WHERE r.title_id = t.id) AS rating
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
`

func scanTitle(row pgx.Row) (*entity.Title, error) {
	var (
		title        entity.Title
		categoryName *string
		categorySlug *string
	)
	err := row.Scan(
		&title.ID,
		&title.Name,
		&title.Year,
		&title.Description,
		&title.CategoryID,
		&title.CreatedAt,
		&title.UpdatedAt,
		&categoryName,
		&categorySlug,
		&title.Rating,
	)
	if err != nil {
		return nil, err
	}

	if title.CategoryID != nil && categorySlug != nil {
		title.Category = &entity.Category{
			BaseSimple: entity.BaseSimple{ID: *title.CategoryID},
			Name:       derefString(categoryName),
			Slug:       *categorySlug,
		}
	}

	return &title, nil
}

func (r *titleRepository) Create(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO titles (id, name, year, description, category_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.Exec(ctx, query,
			title.ID,
			title.Name,
			title.Year,
			title.Description,
			title.CategoryID,
			title.CreatedAt,
			title.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert title: %w", err)
		}

		return linkGenres(ctx, tx, title.ID, genreIDs)
	})
	if err != nil {
		err = asConstraintError(err)
		if errors.Is(err, ErrMissingReference) {
			r.log.Warn("Title references vanished", zap.Error(err), zap.String("name", title.Name))
			return err
		}
		r.log.Error("Failed to create title",
			zap.Error(err),
			zap.String("name", title.Name),
		)
		return fmt.Errorf("create title %s: %w", title.Name, err)
	}

	return nil
}

func linkGenres(ctx context.Context, tx pgx.Tx, titleID uuid.UUID, genreIDs []uuid.UUID) error {
	if len(genreIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO title_genres (title_id, genre_id)
		SELECT $1, UNNEST($2::uuid[])
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.Exec(ctx, query, titleID, genreIDs); err != nil {
		return fmt.Errorf("link genres: %w", err)
	}
	return nil
}

func (r *titleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error) {
	query := titleSelect + ` WHERE t.id = $1`

	title, err := scanTitle(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find title by ID",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return nil, fmt.Errorf("find title by ID %s: %w", id, err)
	}

	return title, nil
}

func (r *titleRepository) FindAll(ctx context.Context, filter TitleFilter, limit, offset int) ([]*entity.Title, error) {
	where, args := buildTitleWhere(filter)
	argCount := len(args) + 1

	var queryBuilder strings.Builder
	queryBuilder.WriteString(titleSelect)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY t.name, t.id LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to list titles",
			zap.Error(err),
			zap.Any("filter", filter),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var titles []*entity.Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			r.log.Error("Failed to scan title row", zap.Error(err))
			return nil, fmt.Errorf("scan title row: %w", err)
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}

func (r *titleRepository) CountAll(ctx context.Context, filter TitleFilter) (int64, error) {
	where, args := buildTitleWhere(filter)
	query := `SELECT COUNT(*) FROM titles t LEFT JOIN categories c ON c.id = t.category_id` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count titles", zap.Error(err), zap.Any("filter", filter))
		return 0, fmt.Errorf("count titles: %w", err)
	}

	return count, nil
}

// buildTitleWhere renders the filter as a WHERE clause with positional args starting at $1.
func buildTitleWhere(filter TitleFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Name != "" {
		next("t.name ILIKE $%d", containsPattern(filter.Name))
	}
	if filter.Category != "" {
		next("c.slug ILIKE $%d", containsPattern(filter.Category))
	}
	if filter.Genre != "" {
		next(`EXISTS (
			SELECT 1 FROM title_genres tg
			INNER JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug ILIKE $%d)`, containsPattern(filter.Genre))
	}
	if filter.Year != nil {
		next("t.year = $%d", *filter.Year)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user input into a literal substring match for ILIKE.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *titleRepository) Update(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE titles
			SET name = $2, year = $3, description = $4, category_id = $5, updated_at = $6
			WHERE id = $1
		`
		result, err := tx.Exec(ctx, query,
			title.ID,
			title.Name,
			title.Year,
			title.Description,
			title.CategoryID,
			title.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update title: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}

		if genreIDs == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM title_genres WHERE title_id = $1`, title.ID); err != nil {
			return fmt.Errorf("unlink genres: %w", err)
		}
		return linkGenres(ctx, tx, title.ID, genreIDs)
	})
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("title %s: %w", title.ID, ErrNotFound)
	}
	if err != nil {
		err = asConstraintError(err)
		if errors.Is(err, ErrMissingReference) {
			r.log.Warn("Title references vanished", zap.Error(err), zap.String("title_id", title.ID.String()))
			return err
		}
		r.log.Error("Failed to update title",
			zap.Error(err),
			zap.String("title_id", title.ID.String()),
		)
		return fmt.Errorf("update title %s: %w", title.ID, err)
	}

	return nil
}

// Delete removes the title; reviews, their comments and genre links cascade.
func (r *titleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete title",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return fmt.Errorf("delete title %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("title %s: %w", id, ErrNotFound)
	}

	r.log.Info("Title deleted", zap.String("title_id", id.String()))
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
