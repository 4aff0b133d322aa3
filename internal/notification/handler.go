package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/juanctr3/b2b/platform/httpkit"
)

// Handler exposes the internal broadcast trigger.
type Handler struct {
	service *Service
}

// NewHandler creates the notification handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{service: svc}
}

// Notify stages alerts for an approved lead. The marketplace backend calls
// this after a lead passes moderation.
func (h *Handler) Notify(c *gin.Context) {
	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || leadID < 1 {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id")
		return
	}

	notified, err := h.service.Broadcast(c.Request.Context(), leadID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"notified": notified})
}
