// README: Order handlers: create, query, status transitions, delivery proof.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"gasline/internal/http/middleware"
	"gasline/internal/modules/order"
	"gasline/internal/types"
)

type OrderHandler struct {
	order *order.Service
	v     *validatorv10.Validate
}

func NewOrderHandler(svc *order.Service, v *validatorv10.Validate) *OrderHandler {
	return &OrderHandler{order: svc, v: v}
}

// orderView decorates the aggregate with the delivery code, which is shown
// only to the owning customer.
type orderView struct {
	*order.Order
	DeliveryCode string `json:"delivery_code,omitempty"`
}

func viewFor(o *order.Order, callerUID string) orderView {
	v := orderView{Order: o}
	if string(o.CustomerID) == callerUID {
		v.DeliveryCode = o.DeliveryCode
	}
	return v
}

type createOrderReq struct {
	GasType          string     `json:"gas_type" validate:"required"`
	CylinderSize     string     `json:"cylinder_size" validate:"required"`
	OrderType        string     `json:"order_type" validate:"required"`
	Quantity         int        `json:"quantity" validate:"required,gt=0"`
	GasPrice         int64      `json:"gas_price" validate:"gte=0"`
	DeliveryFee      int64      `json:"delivery_fee" validate:"gte=0"`
	Discount         int64      `json:"discount" validate:"gte=0"`
	PaymentMethod    string     `json:"payment_method" validate:"required"`
	PaymentReference string     `json:"payment_reference"`
	DeliveryAddress  string     `json:"delivery_address" validate:"required"`
	DeliveryLat      float64    `json:"delivery_lat"`
	DeliveryLng      float64    `json:"delivery_lng"`
	ScheduledTime    *time.Time `json:"scheduled_time"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	o, err := h.order.Create(c.Request.Context(), order.CreateCommand{
		CustomerID:       types.ID(middleware.CallerUID(c)),
		GasType:          order.GasType(req.GasType),
		CylinderSize:     req.CylinderSize,
		OrderType:        order.OrderType(req.OrderType),
		Quantity:         req.Quantity,
		GasPrice:         req.GasPrice,
		DeliveryFee:      req.DeliveryFee,
		Discount:         req.Discount,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		DeliveryAddress:  req.DeliveryAddress,
		Destination:      types.Point{Lat: req.DeliveryLat, Lng: req.DeliveryLng},
		ScheduledTime:    req.ScheduledTime,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusCreated, viewFor(o, middleware.CallerUID(c)))
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, ok := h.fetchVisible(c)
	if !ok {
		return
	}
	writeData(c, http.StatusOK, viewFor(o, middleware.CallerUID(c)))
}

func (h *OrderHandler) List(c *gin.Context) {
	f := order.Filter{
		Status:    order.Status(c.Query("status")),
		StationID: types.ID(c.Query("station_id")),
		Search:    c.Query("search"),
	}
	switch middleware.CallerRole(c) {
	case "customer":
		f.CustomerID = types.ID(middleware.CallerUID(c))
	case "rider":
		f.RiderID = types.ID(middleware.CallerUID(c))
	}
	orders, err := h.order.List(c.Request.Context(), f)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	uid := middleware.CallerUID(c)
	views := make([]orderView, len(orders))
	for i, o := range orders {
		views[i] = viewFor(o, uid)
	}
	writeData(c, http.StatusOK, gin.H{"orders": views})
}

type updateStatusReq struct {
	Status       string `json:"status" validate:"required"`
	DeliveryCode string `json:"delivery_code"`
	Notes        string `json:"notes"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	err := h.order.Transition(c.Request.Context(), order.TransitionCommand{
		OrderID:        types.ID(c.Param("id")),
		To:             order.Status(req.Status),
		Actor:          callerActor(c),
		ActorID:        types.ID(middleware.CallerUID(c)),
		DeliveryCode:   req.DeliveryCode,
		Notes:          req.Notes,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"order_id": c.Param("id"), "status": req.Status})
}

type proofReq struct {
	ProofPhotoURL *string `json:"proof_photo_url"`
	SignatureURL  *string `json:"signature_url"`
	Rating        *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Review        *string `json:"review"`
}

func (h *OrderHandler) SetProof(c *gin.Context) {
	var req proofReq
	if !bindAndValidate(c, &req, h.v) {
		return
	}
	err := h.order.SetProof(c.Request.Context(), types.ID(c.Param("id")), order.Proof{
		ProofPhotoURL: req.ProofPhotoURL,
		SignatureURL:  req.SignatureURL,
		Rating:        req.Rating,
		Review:        req.Review,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"order_id": c.Param("id")})
}

func (h *OrderHandler) History(c *gin.Context) {
	if _, ok := h.fetchVisible(c); !ok {
		return
	}
	entries, err := h.order.History(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"history": entries})
}

// fetchVisible loads the order and enforces per-role visibility: customers
// see their own orders, riders their assigned ones, staff everything.
func (h *OrderHandler) fetchVisible(c *gin.Context) (*order.Order, bool) {
	o, err := h.order.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return nil, false
	}
	uid := middleware.CallerUID(c)
	switch middleware.CallerRole(c) {
	case "customer":
		if string(o.CustomerID) != uid {
			writeError(c, http.StatusForbidden, "forbidden")
			return nil, false
		}
	case "rider":
		if o.RiderID == nil || string(*o.RiderID) != uid {
			writeError(c, http.StatusForbidden, "forbidden")
			return nil, false
		}
	}
	return o, true
}
