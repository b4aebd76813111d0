package inventoryserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	catalogmapper "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/http/mapper"
	catalogtypes "github.com/hcustod/inventory-management-system/internal/domains/catalog/application/types"
	catalogports "github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	apierrors "github.com/hcustod/inventory-management-system/internal/shared/errors"
)

// CategoryAPI wires HTTP transport with the category use cases of the catalog.
type CategoryAPI struct {
	service catalogports.Service
	errors  *apierrors.ChainedResponder
}

func NewCategoryAPI(service catalogports.Service, responder *apierrors.ChainedResponder) CategoryAPI {
	return CategoryAPI{service: service, errors: responder}
}

// Get /api/categories
func (api *CategoryAPI) ListCategories(c *gin.Context) {
	result, err := api.service.ListCategories(c.Request.Context())
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromCategoryProjectionList(result))
}

// Get /api/categories/:id
func (api *CategoryAPI) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "id")
	if !ok {
		return
	}
	category, err := api.service.GetCategory(c.Request.Context(), catalogtypes.CategoryIdentifier{ID: id})
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromCategoryProjection(category))
}

// Post /api/categories
func (api *CategoryAPI) CreateCategory(c *gin.Context) {
	var payload catalogmapper.CategoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, api.errors, err)
		return
	}
	created, err := api.service.CreateCategory(c.Request.Context(), catalogmapper.ToCreateCategoryInput(payload))
	if err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/categories/%d", created.Entity.ID))
	c.JSON(http.StatusCreated, catalogmapper.FromCategoryProjection(created))
}

// Put /api/categories/:id
func (api *CategoryAPI) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "id")
	if !ok {
		return
	}
	var payload catalogmapper.CategoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, api.errors, err)
		return
	}
	if _, err := api.service.UpdateCategory(c.Request.Context(), catalogmapper.ToUpdateCategoryInput(id, payload)); err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete /api/categories/:id
func (api *CategoryAPI) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, api.errors, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteCategory(c.Request.Context(), catalogtypes.CategoryIdentifier{ID: id}); err != nil {
		api.errors.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseIDParam(c *gin.Context, responder *apierrors.ChainedResponder, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		responder.BadRequest(c, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}
