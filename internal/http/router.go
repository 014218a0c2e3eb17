// README: HTTP router registration with role-scoped route groups.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"gasline/internal/http/handlers"
	"gasline/internal/http/middleware"
	"gasline/internal/infra"
	"gasline/internal/modules/assignment"
	"gasline/internal/modules/earnings"
	"gasline/internal/modules/location"
	"gasline/internal/modules/order"
	"gasline/internal/modules/pricing"
	"gasline/internal/modules/rider"
	"gasline/internal/modules/station"
	"gasline/internal/push"
)

type RouterDeps struct {
	Verifier   infra.TokenVerifier
	Order      *order.Service
	Assignment *assignment.Service
	Rider      *rider.Service
	Station    *station.Service
	Earnings   *earnings.Service
	Location   *location.Service
	Pricing    *pricing.Service
	Hub        *push.Hub
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	v := validatorv10.New()

	orderHandler := handlers.NewOrderHandler(deps.Order, v)
	assignHandler := handlers.NewAssignmentHandler(deps.Assignment, v)
	riderHandler := handlers.NewRiderHandler(deps.Rider, deps.Location, v)
	stationHandler := handlers.NewStationHandler(deps.Station)
	earningsHandler := handlers.NewEarningsHandler(deps.Earnings)
	pricingHandler := handlers.NewPricingHandler(deps.Pricing, v)
	wsHandler := handlers.NewWSHandler(deps.Hub)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	api.POST("/orders", middleware.RequireRole("customer"), orderHandler.Create)
	api.GET("/orders", orderHandler.List)
	api.GET("/orders/:id", orderHandler.Get)
	api.GET("/orders/:id/history", orderHandler.History)
	api.POST("/orders/:id/status", orderHandler.UpdateStatus)
	api.POST("/orders/:id/proof", orderHandler.SetProof)

	staff := api.Group("", middleware.RequireRole("manager", "admin"))
	staff.POST("/orders/:id/assign-station", assignHandler.AssignStation)
	staff.POST("/orders/:id/assign-rider", assignHandler.AssignRider)
	staff.POST("/orders/bulk", assignHandler.Bulk)
	staff.GET("/stations/:id/riders", riderHandler.AvailableAtStation)

	api.GET("/stations", stationHandler.ListActive)
	api.GET("/stations/:id/inventory", stationHandler.Inventory)
	api.POST("/orders/quote", pricingHandler.Quote)

	riderGroup := api.Group("/rider", middleware.RequireRole("rider"))
	riderGroup.POST("/availability", riderHandler.SetAvailability)
	riderGroup.POST("/location", riderHandler.UpdateLocation)
	riderGroup.GET("/earnings", earningsHandler.Summary)

	r.GET("/ws", middleware.Auth(deps.Verifier), wsHandler.Subscribe)

	return r
}
