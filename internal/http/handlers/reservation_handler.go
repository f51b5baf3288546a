// README: Reservation lifecycle handlers (list, assign, claim, cancel, complete, delete).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MacTheAnon/joco-exec/internal/http/middleware"
	"github.com/MacTheAnon/joco-exec/internal/modules/dispatch"
	"github.com/MacTheAnon/joco-exec/internal/modules/reservation"
	"github.com/MacTheAnon/joco-exec/internal/types"
)

type ReservationHandler struct {
	reservations *reservation.Service
	dispatch     *dispatch.Service
}

func NewReservationHandler(r *reservation.Service, d *dispatch.Service) *ReservationHandler {
	return &ReservationHandler{reservations: r, dispatch: d}
}

type reservationView struct {
	ID            types.ID  `json:"id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Pickup        string    `json:"pickup"`
	Dropoff       string    `json:"dropoff,omitempty"`
	Stops         []string  `json:"stops,omitempty"`
	FlightNumber  string    `json:"flight_number,omitempty"`
	Passengers    int       `json:"passengers"`
	VehicleClass  string    `json:"vehicle_class"`
	Mode          string    `json:"mode"`
	DurationHours int       `json:"duration_hours,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	MeetAndGreet  bool      `json:"meet_and_greet"`
	RoundTrip     bool      `json:"round_trip"`
	DriverID      *types.ID `json:"driver_id,omitempty"`
	Status        string    `json:"status"`
}

func toView(r *reservation.Reservation) reservationView {
	return reservationView{
		ID:            r.ID,
		Date:          r.TripDate,
		Time:          r.TripTime,
		Pickup:        r.Pickup,
		Dropoff:       r.Dropoff,
		Stops:         r.Stops,
		FlightNumber:  r.FlightNumber,
		Passengers:    r.Passengers,
		VehicleClass:  r.VehicleClass,
		Mode:          string(r.ServiceMode),
		DurationHours: r.DurationHours,
		AmountCents:   r.AmountCaptured,
		MeetAndGreet:  r.MeetAndGreet,
		RoundTrip:     r.RoundTrip,
		DriverID:      r.DriverID,
		Status:        string(r.Status),
	}
}

// List returns reservations most-recent-first. Admins may filter by any
// driver; drivers are always pinned to their own jobs regardless of the
// query string.
func (h *ReservationHandler) List(c *gin.Context) {
	filter := reservation.ListFilter{DriverID: types.ID(c.Query("driver_id"))}
	if middleware.CallerRole(c) != "admin" {
		filter.DriverID = types.ID(middleware.CallerUID(c))
	}
	list, err := h.reservations.List(c.Request.Context(), filter)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	views := make([]reservationView, len(list))
	for i, r := range list {
		views[i] = toView(r)
	}
	c.JSON(http.StatusOK, gin.H{"reservations": views})
}

type assignReq struct {
	DriverID string `json:"driver_id" binding:"required"`
}

func (h *ReservationHandler) Assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.dispatch.Assign(c.Request.Context(), id, types.ID(req.DriverID)); err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": reservation.StatusAssigned})
}

// Claim is the driver self-service path; the caller claims for themselves.
func (h *ReservationHandler) Claim(c *gin.Context) {
	if !middleware.CallerApproved(c) && middleware.CallerRole(c) != "admin" {
		writeError(c, http.StatusForbidden, "driver is not approved")
		return
	}
	id := types.ID(c.Param("id"))
	driverID := types.ID(middleware.CallerUID(c))
	if err := h.reservations.Claim(c.Request.Context(), id, driverID); err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": reservation.StatusAssigned, "driver_id": driverID})
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.reservations.Cancel(c.Request.Context(), id); err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": reservation.StatusCancelled})
}

// Complete is terminal and irreversible; only an admin or the trip's
// assigned driver may finish it.
func (h *ReservationHandler) Complete(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if role := middleware.CallerRole(c); role != "admin" {
		if role != "driver" {
			writeError(c, http.StatusForbidden, "forbidden")
			return
		}
		r, err := h.reservations.Get(c.Request.Context(), id)
		if err != nil {
			writeBookingError(c, err)
			return
		}
		uid := types.ID(middleware.CallerUID(c))
		if r.DriverID == nil || *r.DriverID != uid {
			writeError(c, http.StatusForbidden, "trip is assigned to another driver")
			return
		}
	}
	if err := h.reservations.Complete(c.Request.Context(), id); err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": reservation.StatusCompleted})
}

// Delete hard-removes a record (administrative correction); Cancel is the
// lifecycle path.
func (h *ReservationHandler) Delete(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.reservations.Delete(c.Request.Context(), id); err != nil {
		writeBookingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
