package handler

import (
	"github.com/chahe-dridi/prelevements-backend/pkg/apperr"
	"github.com/chahe-dridi/prelevements-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses via the apperr kind
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// currentUserID returns the authenticated user ID set by the auth middleware
func currentUserID(c *gin.Context) string {
	id, _ := c.Get("userID")
	s, _ := id.(string)
	return s
}
