package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-allocation-backend/internal/store"
)

type allocateRequest struct {
	StudentID int64 `json:"studentId" binding:"required"`
	RoomID    int64 `json:"roomId" binding:"required"`
}

// Allocate handles POST /student/allocate and POST /admin/allocate.
func (h *Handler) Allocate(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	allocation, err := h.store.Allocate(c.Request.Context(), req.StudentID, req.RoomID)
	h.metrics.ObserveAllocation(allocationResult(err))
	if err != nil {
		respondError(c, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(allocation.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Room allocated successfully",
		"allocation": allocation,
	})
}

func allocationResult(err error) string {
	switch {
	case err == nil:
		return "allocated"
	case errors.Is(err, store.ErrCapacityExceeded):
		return "room_full"
	case errors.Is(err, store.ErrAlreadyAllocated):
		return "already_allocated"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// ListAllocations handles GET /student/allocations.
func (h *Handler) ListAllocations(c *gin.Context) {
	allocations, err := h.store.ListAllocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allocations)
}

// GetAllocation handles GET /student/allocations/:id.
func (h *Handler) GetAllocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	allocation, err := h.store.GetAllocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allocation)
}
