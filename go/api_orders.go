package inventoryserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	ordermapper "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	ordersports "github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	apierrors "github.com/hcustod/inventory-management-system/internal/shared/errors"
)

// OrderAPI wires HTTP transport with the orders bounded context.
type OrderAPI struct {
	service ordersports.Service
	errors  *apierrors.ChainedResponder
}

func NewOrderAPI(service ordersports.Service, responder *apierrors.ChainedResponder) OrderAPI {
	return OrderAPI{service: service, errors: responder}
}

// Get /api/orders
// Supports search (customer name), email and orderDate (YYYY-MM-DD).
func (api *OrderAPI) ListOrders(c *gin.Context) {
	var query ordermapper.OrderQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, api.errors, err)
		return
	}
	input, err := ordermapper.ToListOrdersInput(query)
	if err != nil {
		api.errors.BadRequest(c, err.Error())
		return
	}
	result, err := api.service.ListOrders(c.Request.Context(), input)
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromOrderList(result))
}

// Get /api/orders/:id
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "id")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), ordertypes.OrderIdentifier{ID: id})
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromOrder(order))
}

// Post /api/orders
func (api *OrderAPI) PlaceOrder(c *gin.Context) {
	var payload ordermapper.PlaceOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, api.errors, err)
		return
	}
	input := ordermapper.ToPlaceOrderInput(payload)
	input.IdempotencyKey = c.GetHeader(ordermapper.IdempotencyKeyHeader)
	order, err := api.service.PlaceOrder(c.Request.Context(), input)
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/orders/%d", order.ID))
	c.JSON(http.StatusCreated, ordermapper.FromOrder(order))
}

// Delete /api/orders/:id
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), ordertypes.OrderIdentifier{ID: id}); err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.DeletedMessage{Message: "Order deleted successfully."})
}
