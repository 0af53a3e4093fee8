package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the gateway HTTP router.
//
// This is intentionally a thin adapter: handlers decode and encode, the
// controller and workflow packages own every decision.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoint is deliberately unauthenticated (used for infra checks).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/state", s.handleState)
	r.Post("/auth/signin", s.handleSignIn)
	r.Post("/auth/signout", s.handleSignOut)

	r.Post("/me/refresh", s.handleRefresh)
	r.Patch("/me", s.handlePatchMe)
	r.Post("/me/photo", s.handlePhotoUpload)
	r.Delete("/me/photo", s.handlePhotoDelete)

	r.Route("/register", func(r chi.Router) {
		r.Post("/", s.handleRegisterStart)
		r.Post("/{id}/next", s.handleRegisterNext)
		r.Post("/{id}/back", s.handleRegisterBack)
		r.Post("/{id}/submit", s.handleRegisterSubmit)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/members", s.handleAdminList)
		r.Get("/members/{id}", s.handleAdminGet)
		r.Post("/members/{id}/approve", s.handleAdminApprove)
		r.Delete("/members/{id}", s.handleAdminDelete)
	})

	return r
}
