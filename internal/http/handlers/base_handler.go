// README: Handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MacTheAnon/joco-exec/internal/modules/booking"
	"github.com/MacTheAnon/joco-exec/internal/modules/dispatch"
	"github.com/MacTheAnon/joco-exec/internal/modules/payment"
	"github.com/MacTheAnon/joco-exec/internal/modules/pricing"
	"github.com/MacTheAnon/joco-exec/internal/modules/reservation"
)

type errorResponse struct {
	Error         string `json:"error"`
	TransactionID string `json:"transaction_id,omitempty"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeBookingError maps domain sentinels to HTTP statuses. The
// conflict-after-capture case keeps the transaction id in the response so
// the customer has a reference for the refund.
func writeBookingError(c *gin.Context, err error) {
	var conflict *booking.ConflictAfterCaptureError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, errorResponse{
			Error:         "slot was taken while processing; the charge will be refunded",
			TransactionID: conflict.TransactionID,
		})
	case errors.Is(err, booking.ErrValidation),
		errors.Is(err, pricing.ErrUnsupportedVehicleClass),
		errors.Is(err, reservation.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrDeclined):
		writeError(c, http.StatusPaymentRequired, "payment declined")
	case errors.Is(err, payment.ErrGatewayUnavailable):
		writeError(c, http.StatusServiceUnavailable, "payment gateway unavailable, retry with the same idempotency key")
	case errors.Is(err, reservation.ErrNotFound), errors.Is(err, dispatch.ErrUnknownDriver):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, reservation.ErrConflict),
		errors.Is(err, reservation.ErrInvalidState),
		errors.Is(err, reservation.ErrSlotTaken),
		errors.Is(err, dispatch.ErrDriverNotApproved):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
