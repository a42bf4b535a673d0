package wire

import (
	"yamdb-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireTitle(
	r chi.Router,
	titleHandler *adaptor.TitleHandler,
	reviewHandler *adaptor.ReviewHandler,
	commentHandler *adaptor.CommentHandler,
) {
	r.Route("/titles", func(r chi.Router) {
		r.Get("/", titleHandler.List)
		r.Post("/", titleHandler.Create)

		r.Route("/{title_id}", func(r chi.Router) {
			r.Get("/", titleHandler.Get)
			r.Patch("/", titleHandler.Update)
			r.Delete("/", titleHandler.Delete)

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", reviewHandler.List)
				r.Post("/", reviewHandler.Create)

				r.Route("/{review_id}", func(r chi.Router) {
					r.Get("/", reviewHandler.Get)
					r.Patch("/", reviewHandler.Update)
					r.Delete("/", reviewHandler.Delete)

					r.Get("/comments", commentHandler.List)
					r.Post("/comments", commentHandler.Create)
					r.Get("/comments/{comment_id}", commentHandler.Get)
					r.Patch("/comments/{comment_id}", commentHandler.Update)
					r.Delete("/comments/{comment_id}", commentHandler.Delete)
				})
			})
		})
	})
}
