// Package memrepo is an in-memory implementation of the repository interfaces
// for tests. It enforces the same unique keys and cascades as schema.sql.
package memrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*entity.User
	categories  map[uuid.UUID]*entity.Category
	genres      map[uuid.UUID]*entity.Genre
	titles      map[uuid.UUID]*entity.Title
	titleGenres map[uuid.UUID][]uuid.UUID
	reviews     map[uuid.UUID]*entity.Review
	comments    map[uuid.UUID]*entity.Comment
}

func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]*entity.User),
		categories:  make(map[uuid.UUID]*entity.Category),
		genres:      make(map[uuid.UUID]*entity.Genre),
		titles:      make(map[uuid.UUID]*entity.Title),
		titleGenres: make(map[uuid.UUID][]uuid.UUID),
		reviews:     make(map[uuid.UUID]*entity.Review),
		comments:    make(map[uuid.UUID]*entity.Comment),
	}
}

// Repository exposes the store through the repository interfaces.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:     userRepo{s},
		Category: categoryRepo{s},
		Genre:    genreRepo{s},
		Title:    titleRepo{s},
		Review:   reviewRepo{s},
		Comment:  commentRepo{s},
	}
}

func notFound(kind string, key any) error {
	return fmt.Errorf("%s %v: %w", kind, key, repository.ErrNotFound)
}

func missingRef(constraint string) error {
	return &repository.MissingReferenceError{Constraint: constraint}
}

func duplicate(constraint string) error {
	return &repository.DuplicateError{Constraint: constraint}
}

func contains(haystack, needle string) bool {
	return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ==================== USERS ====================

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return duplicate(repository.ConstraintUsername)
		}
		if u.Email == user.Email {
			return duplicate(repository.ConstraintEmail)
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) find(match func(*entity.User) bool) *entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id }), nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r userRepo) filtered(search string) []*entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.User
	for _, u := range r.s.users {
		if contains(u.Username, search) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (r userRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.User, error) {
	return page(r.filtered(search), limit, offset), nil
}

func (r userRepo) CountAll(_ context.Context, search string) (int64, error) {
	return int64(len(r.filtered(search))), nil
}

func (r userRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return notFound("user", user.ID)
	}
	for _, u := range r.s.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return duplicate(repository.ConstraintUsername)
		}
		if u.Email == user.Email {
			return duplicate(repository.ConstraintEmail)
		}
	}

	current.Username = user.Username
	current.Email = user.Email
	current.FirstName = user.FirstName
	current.LastName = user.LastName
	current.Bio = user.Bio
	current.Role = user.Role
	current.UpdatedAt = user.UpdatedAt
	return nil
}

func (r userRepo) SetConfirmationCode(_ context.Context, id uuid.UUID, codeHash string, issuedAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return notFound("user", id)
	}
	u.ConfirmationCode = codeHash
	u.CodeIssuedAt = issuedAt
	return nil
}

func (r userRepo) MarkConfirmed(_ context.Context, id uuid.UUID, consumeHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return notFound("user", id)
	}
	if consumeHash != "" {
		if u.ConfirmationCode != consumeHash {
			return notFound("user", id)
		}
		u.ConfirmationCode = ""
	}
	u.IsConfirmed = true
	return nil
}

func (r userRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return notFound("user", id)
	}
	delete(r.s.users, id)
	for rid, rv := range r.s.reviews {
		if rv.AuthorID == id {
			r.s.deleteReviewLocked(rid)
		}
	}
	for cid, c := range r.s.comments {
		if c.AuthorID == id {
			delete(r.s.comments, cid)
		}
	}
	return nil
}

// ==================== CATEGORIES ====================

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(_ context.Context, category *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.categories {
		if c.Slug == category.Slug {
			return duplicate(repository.ConstraintCategorySlug)
		}
	}
	cp := *category
	r.s.categories[category.ID] = &cp
	return nil
}

func (r categoryRepo) FindBySlug(_ context.Context, slug string) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r categoryRepo) filtered(search string) []*entity.Category {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Category
	for _, c := range r.s.categories {
		if contains(c.Name, search) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r categoryRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.Category, error) {
	return page(r.filtered(search), limit, offset), nil
}

func (r categoryRepo) CountAll(_ context.Context, search string) (int64, error) {
	return int64(len(r.filtered(search))), nil
}

func (r categoryRepo) DeleteBySlug(_ context.Context, slug string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, c := range r.s.categories {
		if c.Slug != slug {
			continue
		}
		delete(r.s.categories, id)
		for _, t := range r.s.titles {
			if t.CategoryID != nil && *t.CategoryID == id {
				t.CategoryID = nil
			}
		}
		return nil
	}
	return notFound("category", slug)
}

// ==================== GENRES ====================

type genreRepo struct{ s *Store }

func (r genreRepo) Create(_ context.Context, genre *entity.Genre) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, g := range r.s.genres {
		if g.Slug == genre.Slug {
			return duplicate(repository.ConstraintGenreSlug)
		}
	}
	cp := *genre
	r.s.genres[genre.ID] = &cp
	return nil
}

func (r genreRepo) FindBySlug(_ context.Context, slug string) (*entity.Genre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, g := range r.s.genres {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (r genreRepo) FindBySlugs(_ context.Context, slugs []string) ([]*entity.Genre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	want := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		want[slug] = true
	}
	var out []*entity.Genre
	for _, g := range r.s.genres {
		if want[g.Slug] {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r genreRepo) FindByTitleIDs(_ context.Context, titleIDs []uuid.UUID) (map[uuid.UUID][]*entity.Genre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[uuid.UUID][]*entity.Genre, len(titleIDs))
	for _, tid := range titleIDs {
		for _, gid := range r.s.titleGenres[tid] {
			if g, ok := r.s.genres[gid]; ok {
				cp := *g
				out[tid] = append(out[tid], &cp)
			}
		}
		sort.Slice(out[tid], func(i, j int) bool { return out[tid][i].Name < out[tid][j].Name })
	}
	return out, nil
}

func (r genreRepo) filtered(search string) []*entity.Genre {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Genre
	for _, g := range r.s.genres {
		if contains(g.Name, search) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r genreRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.Genre, error) {
	return page(r.filtered(search), limit, offset), nil
}

func (r genreRepo) CountAll(_ context.Context, search string) (int64, error) {
	return int64(len(r.filtered(search))), nil
}

func (r genreRepo) DeleteBySlug(_ context.Context, slug string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, g := range r.s.genres {
		if g.Slug != slug {
			continue
		}
		delete(r.s.genres, id)
		for tid, links := range r.s.titleGenres {
			kept := links[:0]
			for _, gid := range links {
				if gid != id {
					kept = append(kept, gid)
				}
			}
			r.s.titleGenres[tid] = kept
		}
		return nil
	}
	return notFound("genre", slug)
}

// ==================== TITLES ====================

type titleRepo struct{ s *Store }

func (r titleRepo) Create(_ context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkTitleRefsLocked(title, genreIDs); err != nil {
		return err
	}
	cp := *title
	cp.Category, cp.Genres, cp.Rating = nil, nil, nil
	r.s.titles[title.ID] = &cp
	r.s.titleGenres[title.ID] = append([]uuid.UUID(nil), genreIDs...)
	return nil
}

// checkTitleRefsLocked mirrors the foreign keys on titles and title_genres.
func (s *Store) checkTitleRefsLocked(title *entity.Title, genreIDs []uuid.UUID) error {
	if title.CategoryID != nil {
		if _, ok := s.categories[*title.CategoryID]; !ok {
			return missingRef(repository.ConstraintTitleCategory)
		}
	}
	for _, gid := range genreIDs {
		if _, ok := s.genres[gid]; !ok {
			return missingRef(repository.ConstraintTitleGenre)
		}
	}
	return nil
}

// readLocked builds the read model the SQL repository returns: category joined, rating computed.
func (s *Store) readLocked(t *entity.Title) *entity.Title {
	cp := *t
	if t.CategoryID != nil {
		if c, ok := s.categories[*t.CategoryID]; ok {
			cat := *c
			cp.Category = &cat
		}
	}

	var sum, n int
	for _, rv := range s.reviews {
		if rv.TitleID == t.ID {
			sum += rv.Score
			n++
		}
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		cp.Rating = &avg
	}
	return &cp
}

func (r titleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Title, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.titles[id]
	if !ok {
		return nil, nil
	}
	return r.s.readLocked(t), nil
}

func (r titleRepo) filtered(f repository.TitleFilter) []*entity.Title {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Title
	for _, t := range r.s.titles {
		read := r.s.readLocked(t)
		if !contains(read.Name, f.Name) {
			continue
		}
		if f.Category != "" && (read.Category == nil || !contains(read.Category.Slug, f.Category)) {
			continue
		}
		if f.Year != nil && read.Year != *f.Year {
			continue
		}
		if f.Genre != "" {
			matched := false
			for _, gid := range r.s.titleGenres[t.ID] {
				if g, ok := r.s.genres[gid]; ok && contains(g.Slug, f.Genre) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, read)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r titleRepo) FindAll(_ context.Context, f repository.TitleFilter, limit, offset int) ([]*entity.Title, error) {
	return page(r.filtered(f), limit, offset), nil
}

func (r titleRepo) CountAll(_ context.Context, f repository.TitleFilter) (int64, error) {
	return int64(len(r.filtered(f))), nil
}

func (r titleRepo) Update(_ context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.titles[title.ID]
	if !ok {
		return notFound("title", title.ID)
	}
	if err := r.s.checkTitleRefsLocked(title, genreIDs); err != nil {
		return err
	}
	current.Name = title.Name
	current.Year = title.Year
	current.Description = title.Description
	current.CategoryID = title.CategoryID
	current.UpdatedAt = title.UpdatedAt
	if genreIDs != nil {
		r.s.titleGenres[title.ID] = append([]uuid.UUID(nil), genreIDs...)
	}
	return nil
}

func (r titleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.titles[id]; !ok {
		return notFound("title", id)
	}
	delete(r.s.titles, id)
	delete(r.s.titleGenres, id)
	for rid, rv := range r.s.reviews {
		if rv.TitleID == id {
			r.s.deleteReviewLocked(rid)
		}
	}
	return nil
}

// ==================== REVIEWS ====================

type reviewRepo struct{ s *Store }

func (r reviewRepo) Create(_ context.Context, review *entity.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.titles[review.TitleID]; !ok {
		return missingRef(repository.ConstraintReviewTitle)
	}
	for _, rv := range r.s.reviews {
		if rv.TitleID == review.TitleID && rv.AuthorID == review.AuthorID {
			return duplicate(repository.ConstraintReviewAuthor)
		}
	}
	cp := *review
	r.s.reviews[review.ID] = &cp
	return nil
}

func (s *Store) withAuthor(rv *entity.Review) *entity.Review {
	cp := *rv
	if u, ok := s.users[rv.AuthorID]; ok {
		cp.AuthorUsername = u.Username
	}
	return &cp
}

func (r reviewRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, nil
	}
	return r.s.withAuthor(rv), nil
}

func (r reviewRepo) byTitle(titleID uuid.UUID) []*entity.Review {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Review
	for _, rv := range r.s.reviews {
		if rv.TitleID == titleID {
			out = append(out, r.s.withAuthor(rv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return out
}

func (r reviewRepo) FindByTitleID(_ context.Context, titleID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	return page(r.byTitle(titleID), limit, offset), nil
}

func (r reviewRepo) CountByTitleID(_ context.Context, titleID uuid.UUID) (int64, error) {
	return int64(len(r.byTitle(titleID))), nil
}

func (r reviewRepo) Update(_ context.Context, review *entity.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.reviews[review.ID]
	if !ok {
		return notFound("review", review.ID)
	}
	current.Text = review.Text
	current.Score = review.Score
	return nil
}

func (r reviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return notFound("review", id)
	}
	r.s.deleteReviewLocked(id)
	return nil
}

func (s *Store) deleteReviewLocked(id uuid.UUID) {
	delete(s.reviews, id)
	for cid, c := range s.comments {
		if c.ReviewID == id {
			delete(s.comments, cid)
		}
	}
}

// ==================== COMMENTS ====================

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, comment *entity.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[comment.ReviewID]; !ok {
		return missingRef(repository.ConstraintCommentReview)
	}
	cp := *comment
	r.s.comments[comment.ID] = &cp
	return nil
}

func (s *Store) commentWithAuthor(c *entity.Comment) *entity.Comment {
	cp := *c
	if u, ok := s.users[c.AuthorID]; ok {
		cp.AuthorUsername = u.Username
	}
	return &cp
}

func (r commentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	return r.s.commentWithAuthor(c), nil
}

func (r commentRepo) byReview(reviewID uuid.UUID) []*entity.Comment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Comment
	for _, c := range r.s.comments {
		if c.ReviewID == reviewID {
			out = append(out, r.s.commentWithAuthor(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return out
}

func (r commentRepo) FindByReviewID(_ context.Context, reviewID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	return page(r.byReview(reviewID), limit, offset), nil
}

func (r commentRepo) CountByReviewID(_ context.Context, reviewID uuid.UUID) (int64, error) {
	return int64(len(r.byReview(reviewID))), nil
}

func (r commentRepo) Update(_ context.Context, comment *entity.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.comments[comment.ID]
	if !ok {
		return notFound("comment", comment.ID)
	}
	current.Text = comment.Text
	return nil
}

func (r commentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return notFound("comment", id)
	}
	delete(r.s.comments, id)
	return nil
}

// ==================== INSPECTION ====================

// Counts reports table sizes, for asserting cascades.
func (s *Store) Counts() (titles, reviews, comments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.titles), len(s.reviews), len(s.comments)
}
