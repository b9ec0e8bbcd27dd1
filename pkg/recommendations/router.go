package recommendations

import "github.com/go-chi/chi/v5"

// RegisterRoutes adds the recommendation endpoints to r. A nil pipeline
// leaves the ratings endpoint unmounted.
func RegisterRoutes(r chi.Router, store *Store, pipeline *Pipeline) {
	r.Get("/documents/{documentId}/recommendations", ListHandler(store))
	r.Post("/documents/{documentId}/recommendations", CreateHandler(store))
	if pipeline != nil {
		r.Post("/documents/{documentId}/ratings", RatingHandler(pipeline))
	}
	r.Get("/recommendations/{id}", GetHandler(store))
	r.Patch("/recommendations/{id}/status", StatusHandler(store))
	r.Post("/recommendations/{id}:suppress", SuppressHandler(store))
}
