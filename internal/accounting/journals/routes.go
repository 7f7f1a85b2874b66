package journals

import "github.com/go-chi/chi/v5"

// MountRoutes registers read endpoints. Resync is mounted by the posting handler.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}
