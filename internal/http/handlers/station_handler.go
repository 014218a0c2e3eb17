// README: Station handlers: listings and inventory reads.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gasline/internal/modules/station"
	"gasline/internal/types"
)

type StationHandler struct {
	stations *station.Service
}

func NewStationHandler(svc *station.Service) *StationHandler {
	return &StationHandler{stations: svc}
}

func (h *StationHandler) ListActive(c *gin.Context) {
	stations, err := h.stations.ListActive(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"stations": stations})
}

// Inventory returns stock lines with the derived low-stock flag attached.
func (h *StationHandler) Inventory(c *gin.Context) {
	items, err := h.stations.Inventory(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	type itemView struct {
		station.InventoryItem
		LowStock bool `json:"low_stock"`
	}
	views := make([]itemView, len(items))
	for i, it := range items {
		views[i] = itemView{InventoryItem: it, LowStock: it.LowStock()}
	}
	writeData(c, http.StatusOK, gin.H{"inventory": views})
}
