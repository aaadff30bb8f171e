package httpserver

import (
	"net/http"
	"time"

	"latergram-go/internal/transport/httpserver/handler"
	authmw "latergram-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handlers *handler.Handlers, authn *authmw.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS([]string{"http://localhost:5173", "http://localhost:8081"}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Post("/auth/signup", handlers.SignUp)
		r.Post("/auth/signin", handlers.SignIn)
		r.Post("/auth/signin/idtoken", handlers.SignInWithIDToken)
		r.Post("/auth/recover", handlers.RecoverPassword)
		r.Post("/auth/logout", handlers.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Post("/albums", handlers.CreateAlbum)
			r.Get("/albums/overview", handlers.AlbumOverview)
			r.Get("/albums/owned", handlers.OwnedAlbums)
			r.Get("/albums/joined", handlers.JoinedAlbums)
			r.Post("/albums/join", handlers.JoinAlbum)
			r.Get("/albums/{id}", handlers.GetAlbum)
			r.Get("/albums/{id}/members", handlers.ListAlbumMembers)
			r.Get("/albums/{id}/stats", handlers.AlbumStats)
			r.Post("/albums/{id}/leave", handlers.LeaveAlbum)
			r.Post("/albums/{id}/refresh-status", handlers.RefreshAlbumStatus)
			r.Delete("/albums/{id}", handlers.DeleteAlbum)
		})
	})

	return r
}
