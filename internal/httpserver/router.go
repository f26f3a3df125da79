package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/CarVault/CarVault/internal/common/middleware"
)

const roleUser = "USER"

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(accessLog(s.log))
	r.Use(recovery(s.log))
	r.Use(tracing(s.cfg.Server.Name))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Post("/auth", s.handleSignIn)
	r.Get("/api/welcome", s.handleWelcome)

	breaker := middleware.NewCircuitBreaker(5, 30*time.Second)

	r.Route("/api/cars", func(r chi.Router) {
		r.Use(authenticate(s.tokens))
		r.Use(rateLimit(100, 100))
		r.Use(circuitBreak(breaker))

		r.Get("/", s.handleListCars)
		r.Get("/by-vin/{vin}", s.handleGetCarByVIN)
		r.Get("/{id}", s.handleGetCar)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(roleUser))

			r.Post("/", s.handleCreateCar)
			r.Put("/{id}", s.handleReplaceCar)
			r.Patch("/{id}", s.handlePatchCar)
			r.Delete("/{id}", s.handleDeleteCar)
		})
	})

	return r
}
