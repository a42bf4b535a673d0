package response

import "yamdb-api/internal/data/entity"

// CatalogEntryResponse is how categories and genres are shown. Their ids stay internal.
type CatalogEntryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func CategoryToResponse(category *entity.Category) CatalogEntryResponse {
	return CatalogEntryResponse{Name: category.Name, Slug: category.Slug}
}

func GenreToResponse(genre *entity.Genre) CatalogEntryResponse {
	return CatalogEntryResponse{Name: genre.Name, Slug: genre.Slug}
}
