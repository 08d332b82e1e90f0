package handler

import (
	"net/http"

	"github.com/chahe-dridi/prelevements-backend/internal/middleware"
	"github.com/chahe-dridi/prelevements-backend/internal/model"
	"github.com/chahe-dridi/prelevements-backend/internal/service"
	"github.com/chahe-dridi/prelevements-backend/pkg/pagination"
	"github.com/chahe-dridi/prelevements-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		requests.POST("", middleware.RequireAuth(), h.CreateRequest)
		requests.GET("/mine", middleware.RequireAuth(), h.ListMyRequests)
		requests.GET("/:id", middleware.RequireAuth(), h.GetRequest)
		requests.POST("/:id/cancel", middleware.RequireAuth(), h.CancelRequest)

		requests.GET("", middleware.RequireAdmin(), h.ListRequests)
		requests.PUT("/:id/approve", middleware.RequireAdmin(), h.ApproveRequest)
		requests.PUT("/:id/reject", middleware.RequireAdmin(), h.RejectRequest)
		requests.PUT("/:id", middleware.RequireAdmin(), h.UpdateRequest)
		requests.DELETE("/:id", middleware.RequireAdmin(), h.DeleteRequest)
		requests.POST("/bulk-delete", middleware.RequireAdmin(), h.BulkDeleteRequests)
	}
}

// CreateRequest submits a new expense request for the authenticated user
// @Summary      Create an expense request
// @Description  Submits a new PENDING request with catalog items from one category
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Request Payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.requestService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		middleware.RecordLifecycleOperation("create", false)
		respondError(c, err)
		return
	}

	middleware.RecordLifecycleOperation("create", true)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListRequests returns all requests, optionally filtered by status
// @Summary      List expense requests
// @Description  Lists all requests with pagination and an optional status filter
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "PENDING, APPROVED or REJECTED"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.RequestResponse}
// @Failure      400     {object}  response.Response
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.RequestFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	requests, total, err := h.requestService.ListAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"requests": requests,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// ListMyRequests returns the authenticated user's own requests
// @Summary      List my requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Router       /api/requests/mine [get]
func (h *RequestHandler) ListMyRequests(c *gin.Context) {
	requests, err := h.requestService.ListByRequester(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// GetRequest returns one request with items and payment detail
// @Summary      Get a request
// @Description  Returns one request; regular users may only read their own
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	res, err := h.requestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	role, _ := c.Get("userRole")
	if role == model.RoleUser && res.RequesterID != currentUserID(c) {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "you may only view your own requests"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ApproveRequest approves a request and records its payment
// @Summary      Approve a request
// @Description  Applies line pricing overrides, computes the total and upserts the payment
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Request ID"
// @Param        payload  body      service.ApproveRequestDTO  true  "Approval Payload"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/requests/{id}/approve [put]
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	var req service.ApproveRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.requestService.Approve(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		middleware.RecordLifecycleOperation("approve", false)
		respondError(c, err)
		return
	}

	middleware.RecordLifecycleOperation("approve", true)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// RejectRequest marks a request as REJECTED
// @Summary      Reject a request
// @Description  Sets the status to REJECTED; any existing payment row is left untouched
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/reject [put]
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	res, err := h.requestService.Reject(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		middleware.RecordLifecycleOperation("reject", false)
		respondError(c, err)
		return
	}

	middleware.RecordLifecycleOperation("reject", true)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UpdateRequest edits status, payment fields and line pricing in one shot
// @Summary      Update a request
// @Description  Applies overrides, optionally changes status, then recomputes and upserts the payment
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Request ID"
// @Param        payload  body      service.UpdateRequestDTO  true  "Update Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/requests/{id} [put]
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	var req service.UpdateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	status, err := h.requestService.Update(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		middleware.RecordLifecycleOperation("update", false)
		respondError(c, err)
		return
	}

	middleware.RecordLifecycleOperation("update", true)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": status}))
}

// CancelRequest lets the owner withdraw a still-pending request
// @Summary      Cancel my request
// @Description  Deletes the request with its items; only the owner may cancel and only while PENDING
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/requests/{id}/cancel [post]
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	if err := h.requestService.Cancel(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		middleware.RecordLifecycleOperation("cancel", false)
		respondError(c, err)
		return
	}

	middleware.RecordLifecycleOperation("cancel", true)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "request cancelled"}))
}

// DeleteRequest removes one request with its items and payment
// @Summary      Delete a request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [delete]
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	deleted, err := h.requestService.Delete(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		middleware.RecordLifecycleOperation("delete", false)
		respondError(c, err)
		return
	}

	middleware.RecordLifecycleOperation("delete", true)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted_count": deleted}))
}

type bulkDeleteDTO struct {
	IDs []string `json:"ids" binding:"required"`
}

// BulkDeleteRequests removes several requests in one transaction
// @Summary      Bulk delete requests
// @Description  Deletes every listed request that exists; reports how many were removed
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      handler.bulkDeleteDTO  true  "Request IDs"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/requests/bulk-delete [post]
func (h *RequestHandler) BulkDeleteRequests(c *gin.Context) {
	var req bulkDeleteDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	deleted, err := h.requestService.BulkDelete(c.Request.Context(), req.IDs, currentUserID(c))
	if err != nil {
		middleware.RecordLifecycleOperation("bulk_delete", false)
		respondError(c, err)
		return
	}

	middleware.RecordLifecycleOperation("bulk_delete", true)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted_count": deleted}))
}
