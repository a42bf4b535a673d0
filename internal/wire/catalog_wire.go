package wire

import (
	"yamdb-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// Categories and genres only support list, create and delete.
func wireCatalog(r chi.Router, categoryHandler *adaptor.CategoryHandler, genreHandler *adaptor.GenreHandler) {
	r.Get("/categories", categoryHandler.List)
	r.Post("/categories", categoryHandler.Create)
	r.Delete("/categories/{slug}", categoryHandler.Delete)

	r.Get("/genres", genreHandler.List)
	r.Post("/genres", genreHandler.Create)
	r.Delete("/genres/{slug}", genreHandler.Delete)
}
