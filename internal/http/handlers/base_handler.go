// README: Shared handler utilities: response envelope, error mapping, binding.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"gasline/internal/http/middleware"
	"gasline/internal/modules/earnings"
	"gasline/internal/modules/order"
	"gasline/internal/modules/pricing"
	"gasline/internal/modules/rider"
	"gasline/internal/modules/station"
)

// envelope is the one response shape every endpoint emits.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Success: false, Error: msg})
}

// writeDomainError maps module sentinel errors onto the HTTP taxonomy:
// validation/precondition failures are 422, authorization 403, concurrent
// losers 409 (distinct so the UI prompts a refresh, not a resubmission).
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, station.ErrNotFound),
		errors.Is(err, rider.ErrNotFound),
		errors.Is(err, earnings.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrInvalidState),
		errors.Is(err, order.ErrNoStation),
		errors.Is(err, order.ErrRiderUnavailable),
		errors.Is(err, order.ErrInactiveStation),
		errors.Is(err, order.ErrDeliveryCode),
		errors.Is(err, order.ErrNotDelivered),
		errors.Is(err, order.ErrProofFinal),
		errors.Is(err, earnings.ErrInvalidStatus),
		errors.Is(err, pricing.ErrNoPrice):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// bindAndValidate decodes the JSON body and runs struct validation; on
// failure it writes the 400 and the handler short-circuits.
func bindAndValidate(c *gin.Context, out any, v *validatorv10.Validate) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := v.Struct(out); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// callerActor maps the session role onto the state machine's actor set.
func callerActor(c *gin.Context) order.Actor {
	switch middleware.CallerRole(c) {
	case "customer":
		return order.ActorCustomer
	case "rider":
		return order.ActorRider
	case "manager":
		return order.ActorManager
	case "admin":
		return order.ActorAdmin
	default:
		return ""
	}
}
