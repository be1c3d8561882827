/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/stays/*          Derived stays, folio, lifecycle transitions
  /api/orders/*         Orders and payments
  /api/rooms/*          Rooms, tags, housekeeping
  /api/hotels/*         Hotels and settings
  /api/reservations     Night booking
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Stay routes: {id} is any constituent night-reservation id
		r.Route("/stays", func(r chi.Router) {
			r.Get("/", h.ListStays)
			r.Get("/{id}", h.GetStay)
			r.Get("/{id}/folio", h.GetFolio)
			r.Post("/{id}/checkin", h.CheckIn)
			r.Post("/{id}/checkout", h.Checkout)
			r.Post("/{id}/cancel", h.Cancel)
			r.Post("/{id}/charges", h.PostCharges)
		})

		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Post("/{id}/pay", h.PayOrder)
		})

		// Room routes
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Get("/{id}", h.GetRoom)
			r.Put("/{id}/tags", h.PatchRoomTags)
		})
		r.Get("/housekeeping", h.ListCleaningQueue)

		// Hotel routes
		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", h.ListHotels)
			r.Put("/{id}/tags", h.PatchHotelTags)
		})

		r.Post("/reservations", h.CreateReservation)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
