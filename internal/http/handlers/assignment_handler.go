// README: Assignment handlers: station/rider assignment and bulk actions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"gasline/internal/http/middleware"
	"gasline/internal/modules/assignment"
	"gasline/internal/modules/order"
	"gasline/internal/types"
)

type AssignmentHandler struct {
	assign *assignment.Service
	v      *validatorv10.Validate
}

func NewAssignmentHandler(svc *assignment.Service, v *validatorv10.Validate) *AssignmentHandler {
	return &AssignmentHandler{assign: svc, v: v}
}

type assignStationReq struct {
	StationID string `json:"station_id" validate:"required"`
}

func (h *AssignmentHandler) AssignStation(c *gin.Context) {
	var req assignStationReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	res, err := h.assign.AssignStation(
		c.Request.Context(),
		types.ID(c.Param("id")),
		types.ID(req.StationID),
		callerActor(c),
		types.ID(middleware.CallerUID(c)),
	)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, res)
}

type assignRiderReq struct {
	RiderID string `json:"rider_id" validate:"required"`
	Notes   string `json:"notes"`
}

func (h *AssignmentHandler) AssignRider(c *gin.Context) {
	var req assignRiderReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	err := h.assign.AssignRider(
		c.Request.Context(),
		types.ID(c.Param("id")),
		types.ID(req.RiderID),
		callerActor(c),
		req.Notes,
	)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"order_id": c.Param("id"), "rider_id": req.RiderID})
}

type bulkReq struct {
	Action    string   `json:"action" validate:"required,oneof=assign_station update_status cancel_orders"`
	OrderIDs  []string `json:"order_ids" validate:"required,min=1"`
	StationID string   `json:"station_id"`
	Status    string   `json:"status"`
	Notes     string   `json:"notes"`
}

// Bulk applies one action across many orders, best-effort with per-item
// outcomes; a failed item never rolls back the others.
func (h *AssignmentHandler) Bulk(c *gin.Context) {
	var req bulkReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	ids := make([]types.ID, len(req.OrderIDs))
	for i, id := range req.OrderIDs {
		ids[i] = types.ID(id)
	}
	actor := callerActor(c)
	actorID := types.ID(middleware.CallerUID(c))

	var results []assignment.ItemResult
	switch req.Action {
	case "assign_station":
		if req.StationID == "" {
			writeError(c, http.StatusBadRequest, "station_id is required")
			return
		}
		results = h.assign.BulkAssignStation(c.Request.Context(), ids, types.ID(req.StationID), actor, actorID)
	case "update_status":
		if req.Status == "" {
			writeError(c, http.StatusBadRequest, "status is required")
			return
		}
		results = h.assign.BulkTransition(c.Request.Context(), ids, order.Status(req.Status), actor, actorID, req.Notes)
	case "cancel_orders":
		results = h.assign.BulkCancel(c.Request.Context(), ids, actor, actorID, req.Notes)
	}

	succeeded := 0
	for _, r := range results {
		if r.OK {
			succeeded++
		}
	}
	writeData(c, http.StatusOK, gin.H{
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"results":   results,
	})
}
