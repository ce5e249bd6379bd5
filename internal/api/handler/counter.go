package handler

import (
	"net/http"

	"github.com/ciocnim/arena/internal/api/response"
	"github.com/ciocnim/arena/internal/services/counter"
)

// CounterHandler serves the global resolved-rounds tally
type CounterHandler struct {
	counterService *counter.Service
}

// NewCounterHandler creates a new counter handler
func NewCounterHandler(counterService *counter.Service) *CounterHandler {
	return &CounterHandler{counterService: counterService}
}

// Get handles GET /api/v1/counter. The value is already clamped; a
// store outage still yields the floor rather than an error.
func (h *CounterHandler) Get(w http.ResponseWriter, r *http.Request) {
	total, _ := h.counterService.Total(r.Context())
	response.JSON(w, http.StatusOK, response.Counter{Total: total})
}
