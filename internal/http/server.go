// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MacTheAnon/joco-exec/internal/http/handlers"
	"github.com/MacTheAnon/joco-exec/internal/http/middleware"
	"github.com/MacTheAnon/joco-exec/internal/infra"
	"github.com/MacTheAnon/joco-exec/internal/modules/booking"
	"github.com/MacTheAnon/joco-exec/internal/modules/dispatch"
	"github.com/MacTheAnon/joco-exec/internal/modules/reservation"
)

type ServerDeps struct {
	Booking      *booking.Service
	Reservations *reservation.Service
	Dispatch     *dispatch.Service
	Verifier     infra.TokenVerifier
}

type Server struct {
	booking      *booking.Service
	reservations *reservation.Service
	dispatch     *dispatch.Service
	verifier     infra.TokenVerifier
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		booking:      deps.Booking,
		reservations: deps.Reservations,
		dispatch:     deps.Dispatch,
		verifier:     deps.Verifier,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	bookingHandler := handlers.NewBookingHandler(s.booking, s.reservations)
	reservationHandler := handlers.NewReservationHandler(s.reservations, s.dispatch)
	dispatchHandler := handlers.NewDispatchHandler(s.dispatch)

	// Quote and availability are the storefront's pre-checkout calls; they
	// stay public.
	r.POST("/api/reservations/availability", bookingHandler.Availability)
	r.POST("/api/reservations/quote", bookingHandler.Quote)

	auth := r.Group("/api", middleware.Auth(s.verifier))
	auth.POST("/reservations", bookingHandler.Book)
	auth.GET("/reservations", reservationHandler.List)
	auth.POST("/reservations/:id/claim", reservationHandler.Claim)
	auth.POST("/reservations/:id/complete", reservationHandler.Complete)

	admin := auth.Group("", middleware.RequireRole("admin"))
	admin.POST("/reservations/:id/assign", reservationHandler.Assign)
	admin.POST("/reservations/:id/cancel", reservationHandler.Cancel)
	admin.DELETE("/reservations/:id", reservationHandler.Delete)
	admin.POST("/dispatch/message", dispatchHandler.Message)
	admin.GET("/dispatch/reservations/:id", dispatchHandler.Audit)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
