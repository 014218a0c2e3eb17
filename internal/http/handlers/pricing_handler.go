// README: Pricing handler: delivery-fee quotes before order creation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"gasline/internal/modules/pricing"
	"gasline/internal/types"
)

type PricingHandler struct {
	pricing *pricing.Service
	v       *validatorv10.Validate
}

func NewPricingHandler(svc *pricing.Service, v *validatorv10.Validate) *PricingHandler {
	return &PricingHandler{pricing: svc, v: v}
}

type quoteReq struct {
	StationID    string  `json:"station_id" validate:"required"`
	GasType      string  `json:"gas_type" validate:"required"`
	CylinderSize string  `json:"cylinder_size" validate:"required"`
	Quantity     int     `json:"quantity" validate:"required,gt=0"`
	DeliveryLat  float64 `json:"delivery_lat" validate:"required"`
	DeliveryLng  float64 `json:"delivery_lng" validate:"required"`
}

func (h *PricingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	q, err := h.pricing.QuoteOrder(
		c.Request.Context(),
		types.ID(req.StationID),
		types.Point{Lat: req.DeliveryLat, Lng: req.DeliveryLng},
		req.GasType, req.CylinderSize, req.Quantity,
	)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, q)
}
