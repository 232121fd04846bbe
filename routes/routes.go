package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"familyquest/controllers"
	"familyquest/controllers/admins"
	"familyquest/controllers/users"
	"familyquest/middleware"
	"familyquest/services"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// chains builds the per-route middleware stacks. The user limiter runs after
// authentication because it keys on the caller.
type chains struct {
	userLimiter *middleware.UserRateLimiter
}

func (c chains) authed(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(c.userLimiter.Middleware(h))
}

func (c chains) member(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(c.userLimiter.Middleware(middleware.RequireFamily(h)))
}

func (c chains) admin(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(c.userLimiter.Middleware(middleware.RequireAdmin(h)))
}

func corsOrigins() []string {
	origins := []string{
		"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:3000", "http://127.0.0.1:5173",
	}
	for _, p := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o := strings.TrimSpace(p); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func InitRouter(svc *services.Service) *mux.Router {
	r := mux.NewRouter()

	info := controllers.NewInfoController(svc)
	r.Handle("/health", http.HandlerFunc(info.Health)).Methods(http.MethodGet)

	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(corsOrigins()),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	api := r.PathPrefix("/api").Subrouter()
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	c := chains{userLimiter: middleware.NewUserRateLimiter(120, 60, 60)}

	api.Handle("/health", http.HandlerFunc(info.Health)).Methods(http.MethodGet)
	api.Handle("/monsters", c.authed(info.Monsters)).Methods(http.MethodGet)
	api.Handle("/monsters/{level:[0-9]+}/taunt", c.authed(info.Taunt)).Methods(http.MethodGet)

	AuthRoutes(api, c, middleware.NewIPRateLimiter(60, 5*time.Minute))
	UsersRoutes(api, c, users.NewController(svc))
	AdminRoutes(api, c, admins.NewController(svc))

	return r
}
