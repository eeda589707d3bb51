package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/todolist/backend/internal/auth"
	"github.com/ayush/todolist/backend/internal/middleware"
	"github.com/ayush/todolist/backend/internal/tasks"
)

// Options carries everything the router needs.
type Options struct {
	Tokens         *auth.Issuer
	Users          *auth.Handler
	Tasks          *tasks.Handler
	AllowedOrigins []string
	// Quiet disables request logging.
	Quiet bool
}

// NewRouter builds the HTTP API.
func NewRouter(o Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if !o.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("This is the todolist API!"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/users", func(r chi.Router) {
		// public
		r.Post("/register", o.Users.Register)
		r.Post("/login", o.Users.Login)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(middleware.RequireAuth(o.Tokens))
			r.Use(middleware.RequireOwner("id"))

			r.Get("/", o.Users.Get)
			r.Put("/", o.Users.Update)
			r.Delete("/", o.Users.Delete)
			r.Get("/username", o.Users.Username)
			r.Get("/activity", o.Users.Activity)

			r.Post("/tasks", o.Tasks.Create)
			r.Get("/tasks", o.Tasks.List)
			r.Get("/tasks/{taskId}", o.Tasks.Get)
			r.Put("/tasks/{taskId}", o.Tasks.Update)
			r.Delete("/tasks/{taskId}", o.Tasks.Delete)
		})
	})

	return r
}
