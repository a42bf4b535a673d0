package response

import "yamdb-api/internal/data/entity"

type TitleResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Year        int                    `json:"year"`
	Rating      *float64               `json:"rating"`
	Description *string                `json:"description"`
	Genre       []CatalogEntryResponse `json:"genre"`
	Category    *CatalogEntryResponse  `json:"category"`
}

// TitleWriteResponse echoes a write with genres and category as slugs.
type TitleWriteResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre"`
	Category    *string  `json:"category"`
}

func TitleToResponse(title *entity.Title) TitleResponse {
	genres := make([]CatalogEntryResponse, 0, len(title.Genres))
	for _, g := range title.Genres {
		genres = append(genres, GenreToResponse(g))
	}

	resp := TitleResponse{
		ID:          title.ID.String(),
		Name:        title.Name,
		Year:        title.Year,
		Rating:      title.Rating,
		Description: title.Description,
		Genre:       genres,
	}
	if title.Category != nil {
		category := CategoryToResponse(title.Category)
		resp.Category = &category
	}
	return resp
}

func TitleToWriteResponse(title *entity.Title) TitleWriteResponse {
	slugs := make([]string, 0, len(title.Genres))
	for _, g := range title.Genres {
		slugs = append(slugs, g.Slug)
	}

	resp := TitleWriteResponse{
		ID:          title.ID.String(),
		Name:        title.Name,
		Year:        title.Year,
		Description: title.Description,
		Genre:       slugs,
	}
	if title.Category != nil {
		slug := title.Category.Slug
		resp.Category = &slug
	}
	return resp
}
