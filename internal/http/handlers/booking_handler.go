// README: Handlers for availability, quote, and the orchestrated booking.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MacTheAnon/joco-exec/internal/modules/booking"
	"github.com/MacTheAnon/joco-exec/internal/modules/pricing"
	"github.com/MacTheAnon/joco-exec/internal/modules/reservation"
)

type BookingHandler struct {
	booking      *booking.Service
	reservations *reservation.Service
}

func NewBookingHandler(b *booking.Service, r *reservation.Service) *BookingHandler {
	return &BookingHandler{booking: b, reservations: r}
}

type availabilityReq struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

func (h *BookingHandler) Availability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	available, err := h.reservations.IsAvailable(c.Request.Context(), req.Date, req.Time)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

type quoteReq struct {
	Date          string  `json:"date" binding:"required"`
	VehicleClass  string  `json:"vehicle_class" binding:"required"`
	Mode          string  `json:"mode"`
	Pickup        string  `json:"pickup"`
	Dropoff       string  `json:"dropoff"`
	DistanceMiles float64 `json:"distance_miles"`
	DurationHours int     `json:"duration_hours"`
	RoundTrip     bool    `json:"round_trip"`
}

func (h *BookingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.booking.Quote(c.Request.Context(), booking.QuoteRequest{
		TripDate:      req.Date,
		VehicleClass:  req.VehicleClass,
		Mode:          pricing.ServiceMode(req.Mode),
		Pickup:        req.Pickup,
		Dropoff:       req.Dropoff,
		DistanceMiles: req.DistanceMiles,
		DurationHours: req.DurationHours,
		RoundTrip:     req.RoundTrip,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount_cents":   res.Amount.Amount,
		"currency":       res.Amount.Currency,
		"distance_miles": res.DistanceMiles,
		"method":         res.Method,
	})
}

type bookReq struct {
	Date           string   `json:"date" binding:"required"`
	Time           string   `json:"time" binding:"required"`
	Pickup         string   `json:"pickup" binding:"required"`
	Dropoff        string   `json:"dropoff"`
	Stops          []string `json:"stops"`
	FlightNumber   string   `json:"flight_number"`
	Passengers     int      `json:"passengers" binding:"required"`
	VehicleClass   string   `json:"vehicle_class" binding:"required"`
	Mode           string   `json:"mode"`
	DurationHours  int      `json:"duration_hours"`
	RoundTrip      bool     `json:"round_trip"`
	MeetAndGreet   bool     `json:"meet_and_greet"`
	SourceID       string   `json:"source_id" binding:"required"`
	IdempotencyKey string   `json:"idempotency_key" binding:"required"`
}

func (h *BookingHandler) Book(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.booking.Book(c.Request.Context(), booking.BookRequest{
		TripDate:       req.Date,
		TripTime:       req.Time,
		Pickup:         req.Pickup,
		Dropoff:        req.Dropoff,
		Stops:          req.Stops,
		FlightNumber:   req.FlightNumber,
		Passengers:     req.Passengers,
		VehicleClass:   req.VehicleClass,
		Mode:           pricing.ServiceMode(req.Mode),
		DurationHours:  req.DurationHours,
		RoundTrip:      req.RoundTrip,
		MeetAndGreet:   req.MeetAndGreet,
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reservation_id":        res.ReservationID,
		"transaction_id":        res.TransactionID,
		"amount_captured_cents": res.AmountCaptured.Amount,
		"currency":              res.AmountCaptured.Currency,
	})
}
