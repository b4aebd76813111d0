package inventoryserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogmapper "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/http/mapper"
	catalogtypes "github.com/hcustod/inventory-management-system/internal/domains/catalog/application/types"
	catalogports "github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	apierrors "github.com/hcustod/inventory-management-system/internal/shared/errors"
)

// ProductAPI wires HTTP transport with the product use cases of the catalog.
type ProductAPI struct {
	service catalogports.Service
	errors  *apierrors.ChainedResponder
}

func NewProductAPI(service catalogports.Service, responder *apierrors.ChainedResponder) ProductAPI {
	return ProductAPI{service: service, errors: responder}
}

// Get /api/products
// Supports search, categoryId, minPrice, maxPrice, sortBy and lowStockOnly.
func (api *ProductAPI) ListProducts(c *gin.Context) {
	var query catalogmapper.ProductQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, api.errors, err)
		return
	}
	input, err := catalogmapper.ToListProductsInput(query)
	if err != nil {
		api.errors.BadRequest(c, err.Error())
		return
	}
	result, err := api.service.ListProducts(c.Request.Context(), input)
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromProductProjectionList(result))
}

// Get /api/products/:id
func (api *ProductAPI) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "id")
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), catalogtypes.ProductIdentifier{ID: id})
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromProductProjection(product))
}

// Get /api/products/byCategory/:categoryId
func (api *ProductAPI) ProductsByCategory(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "categoryId")
	if !ok {
		return
	}
	result, err := api.service.ProductsByCategory(c.Request.Context(), catalogtypes.CategoryIdentifier{ID: id})
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromProductProjectionList(result))
}

// Post /api/products
func (api *ProductAPI) CreateProduct(c *gin.Context) {
	var payload catalogmapper.ProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, api.errors, err)
		return
	}
	created, err := api.service.CreateProduct(c.Request.Context(), catalogmapper.ToCreateProductInput(payload))
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/products/%d", created.Entity.ID))
	c.JSON(http.StatusCreated, catalogmapper.FromProductProjection(created))
}

// Put /api/products/:id
func (api *ProductAPI) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "id")
	if !ok {
		return
	}
	var payload catalogmapper.ProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, api.errors, err)
		return
	}
	if _, err := api.service.UpdateProduct(c.Request.Context(), catalogmapper.ToUpdateProductInput(id, payload)); err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete /api/products/:id
func (api *ProductAPI) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteProduct(c.Request.Context(), catalogtypes.ProductIdentifier{ID: id}); err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
