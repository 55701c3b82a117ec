package handlers

import (
	"ImageHub/internal/config"
	"ImageHub/internal/gateway"
	"ImageHub/internal/middleware"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров. cdn раздаёт объекты локального хранилища;
// nil, если изображения лежат во внешнем хранилище.
func NewHandler(
	gw *gateway.Gateway,
	cdn http.Handler,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler)
	r.Use(middleware.WithAuth(middleware.VerifierFunc(gw.Authenticate)))

	// Handlers
	authHandler := NewAuthHandler(gw, logger, config)
	userHandler := NewUserHandler(gw, logger, config)
	folderHandler := NewFolderHandler(gw, logger, config)
	imageHandler := NewImageHandler(gw, logger, config)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cdn != nil {
		r.Handle("/cdn/*", http.StripPrefix("/cdn", cdn))
	}

	r.Route("/api", func(r chi.Router) {
		// Auth routes
		login := http.HandlerFunc(authHandler.Login)
		// ноль или меньше: без ограничения
		if config.LoginRateLimit > 0 {
			r.With(httprate.Limit(
				config.LoginRateLimit,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			)).Post("/auth/login", login)
		} else {
			r.Post("/auth/login", login)
		}
		r.Post("/auth/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/auth/me", authHandler.Me)

			// User routes
			r.Get("/users", userHandler.List)
			r.Post("/users", userHandler.Create)
			r.Delete("/users/{id}", userHandler.Delete)
			r.Put("/users/{id}/password", authHandler.ChangePassword)
			r.Get("/users/{id}/folders", userHandler.Folders)

			// Folder routes
			r.Get("/folders", folderHandler.List)
			r.Post("/folders", folderHandler.Create)
			r.Delete("/folders/{id}", folderHandler.Delete)
			r.Put("/folders/{id}/members/{userID}", folderHandler.Assign)
			r.Delete("/folders/{id}/members/{userID}", folderHandler.Unassign)

			// Image routes
			r.Get("/folders/{id}/images", imageHandler.List)
			r.Post("/folders/{id}/images", imageHandler.Upload)
			r.Post("/folders/{id}/images/import", imageHandler.Import)
			r.Post("/folders/{id}/mockups", imageHandler.Mockup)
			r.Delete("/images/{id}", imageHandler.Delete)
		})
	})

	return &Handler{Router: r}
}
