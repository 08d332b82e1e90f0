package handler

import (
	"net/http"

	"github.com/chahe-dridi/prelevements-backend/internal/middleware"
	"github.com/chahe-dridi/prelevements-backend/internal/service"
	"github.com/chahe-dridi/prelevements-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/api/categories")
	{
		categories.GET("", middleware.RequireAuth(), h.ListCategories)
		categories.POST("", middleware.RequireAdmin(), h.CreateCategory)
		categories.PUT("/:id", middleware.RequireAdmin(), h.UpdateCategory)
		categories.DELETE("/:id", middleware.RequireAdmin(), h.DeleteCategory)
	}

	items := router.Group("/api/items")
	{
		items.POST("", middleware.RequireAdmin(), h.CreateItem)
		items.PUT("/:id", middleware.RequireAdmin(), h.UpdateItem)
		items.DELETE("/:id", middleware.RequireAdmin(), h.DeleteItem)
	}
}

// ListCategories returns the full catalog, categories with their items
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.CategoryResponse}
// @Router       /api/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// CreateCategory adds a new catalog category
// @Summary      Create category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCategoryDTO  true  "Category Payload"
// @Success      201      {object}  response.Response{data=service.CategoryResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// UpdateCategory edits a category's name or description
// @Summary      Update category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Category ID"
// @Param        payload  body      service.UpdateCategoryDTO  true  "Category Payload"
// @Success      200      {object}  response.Response{data=service.CategoryResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req service.UpdateCategoryDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory removes an empty, unreferenced category
// @Summary      Delete category
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "category deleted"}))
}

// CreateItem adds a catalog item to a category
// @Summary      Create item
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateItemDTO  true  "Item Payload"
// @Success      201      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/items [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.catalogService.CreateItem(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem edits an item's name or reference price
// @Summary      Update item
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Item ID"
// @Param        payload  body      service.UpdateItemDTO  true  "Item Payload"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/items/{id} [put]
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateItemDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.catalogService.UpdateItem(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes an item not referenced by any request line
// @Summary      Delete item
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/items/{id} [delete]
func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	if err := h.catalogService.DeleteItem(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "item deleted"}))
}
