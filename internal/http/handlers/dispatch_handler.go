// README: Handler for direct operator-to-driver messages.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MacTheAnon/joco-exec/internal/modules/dispatch"
	"github.com/MacTheAnon/joco-exec/internal/types"
)

type DispatchHandler struct {
	dispatch *dispatch.Service
}

func NewDispatchHandler(d *dispatch.Service) *DispatchHandler {
	return &DispatchHandler{dispatch: d}
}

type messageReq struct {
	DriverID string `json:"driver_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

func (h *DispatchHandler) Message(c *gin.Context) {
	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.dispatch.DirectMessage(c.Request.Context(), types.ID(req.DriverID), req.Text); err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// Audit answers "who was told about this job, and when" for operator
// investigations of delivery complaints.
func (h *DispatchHandler) Audit(c *gin.Context) {
	id := types.ID(c.Param("id"))
	audit, err := h.dispatch.AuditDispatch(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	resp := gin.H{"dispatched": audit.Dispatched, "notified_drivers": audit.NotifiedDrivers}
	if audit.Dispatched {
		resp["dispatched_at"] = audit.DispatchedAt
	}
	c.JSON(http.StatusOK, resp)
}
