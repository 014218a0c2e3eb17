// README: Rider handlers: availability toggle, roster queries, location updates.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"gasline/internal/http/middleware"
	"gasline/internal/modules/location"
	"gasline/internal/modules/rider"
	"gasline/internal/types"
)

type RiderHandler struct {
	riders   *rider.Service
	location *location.Service
	v        *validatorv10.Validate
}

func NewRiderHandler(riders *rider.Service, loc *location.Service, v *validatorv10.Validate) *RiderHandler {
	return &RiderHandler{riders: riders, location: loc, v: v}
}

type availabilityReq struct {
	Online *bool `json:"online" validate:"required"`
}

// SetAvailability is the rider's self-toggle.
func (h *RiderHandler) SetAvailability(c *gin.Context) {
	var req availabilityReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	uid := types.ID(middleware.CallerUID(c))
	if err := h.riders.SetOnline(c.Request.Context(), uid, *req.Online); err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"rider_id": uid, "online": *req.Online})
}

// AvailableAtStation lists riders a manager can assign manually.
func (h *RiderHandler) AvailableAtStation(c *gin.Context) {
	riders, err := h.riders.AvailableAtStation(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"riders": riders})
}

type locationReq struct {
	Lat float64 `json:"lat" validate:"required"`
	Lng float64 `json:"lng" validate:"required"`
}

// UpdateLocation forwards the rider's periodic geolocation callback.
func (h *RiderHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	uid := types.ID(middleware.CallerUID(c))
	err := h.location.Update(c.Request.Context(), location.Update{
		RiderID:  uid,
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"rider_id": uid})
}
