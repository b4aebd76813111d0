// Package inventoryserver is the gin transport of the inventory API.
package inventoryserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	identityports "github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
	apierrors "github.com/hcustod/inventory-management-system/internal/shared/errors"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// Access is the minimum caller the route accepts.
	Access Access
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every API section.
type ApiHandleFunctions struct {
	CategoryAPI CategoryAPI
	ProductAPI  ProductAPI
	OrderAPI    OrderAPI
	// Authenticator resolves bearer credentials. Nil leaves every caller anonymous.
	Authenticator identityports.Authenticator
	Errors        *apierrors.ChainedResponder
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	responder := handleFunctions.Errors
	if responder == nil {
		responder = NewResponder(nil)
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("")
	api.Use(Authenticate(handleFunctions.Authenticator, responder))
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		api.Handle(route.Method, route.Pattern, Require(route.Access, responder), route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"ListCategories", http.MethodGet, "/api/categories", AccessAnonymous, handleFunctions.CategoryAPI.ListCategories},
		{"GetCategory", http.MethodGet, "/api/categories/:id", AccessAnonymous, handleFunctions.CategoryAPI.GetCategory},
		{"CreateCategory", http.MethodPost, "/api/categories", AccessAdmin, handleFunctions.CategoryAPI.CreateCategory},
		{"UpdateCategory", http.MethodPut, "/api/categories/:id", AccessAdmin, handleFunctions.CategoryAPI.UpdateCategory},
		{"DeleteCategory", http.MethodDelete, "/api/categories/:id", AccessAdmin, handleFunctions.CategoryAPI.DeleteCategory},

		{"ListProducts", http.MethodGet, "/api/products", AccessAuthenticated, handleFunctions.ProductAPI.ListProducts},
		{"ProductsByCategory", http.MethodGet, "/api/products/byCategory/:categoryId", AccessAuthenticated, handleFunctions.ProductAPI.ProductsByCategory},
		{"GetProduct", http.MethodGet, "/api/products/:id", AccessAuthenticated, handleFunctions.ProductAPI.GetProduct},
		{"CreateProduct", http.MethodPost, "/api/products", AccessAdmin, handleFunctions.ProductAPI.CreateProduct},
		{"UpdateProduct", http.MethodPut, "/api/products/:id", AccessAdmin, handleFunctions.ProductAPI.UpdateProduct},
		{"DeleteProduct", http.MethodDelete, "/api/products/:id", AccessAdmin, handleFunctions.ProductAPI.DeleteProduct},

		{"ListOrders", http.MethodGet, "/api/orders", AccessAuthenticated, handleFunctions.OrderAPI.ListOrders},
		{"GetOrder", http.MethodGet, "/api/orders/:id", AccessAuthenticated, handleFunctions.OrderAPI.GetOrder},
		{"PlaceOrder", http.MethodPost, "/api/orders", AccessUser, handleFunctions.OrderAPI.PlaceOrder},
		{"DeleteOrder", http.MethodDelete, "/api/orders/:id", AccessAdmin, handleFunctions.OrderAPI.DeleteOrder},
	}
}
