package handler

import (
	"net/http"

	"fieldexpense/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser pulls the authenticated user's ID and role out of the gin
// context set by the auth middleware. Aborts with 401 when absent or garbled.
func currentUser(c *gin.Context) (uuid.UUID, string, bool) {
	idStr := c.GetString("userID")
	role := c.GetString("userRole")
	if idStr == "" || role == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User identity not found in context"))
		return uuid.Nil, "", false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user ID in token"))
		return uuid.Nil, "", false
	}
	return id, role, true
}

// pathUUID parses a :param path segment as a UUID, emitting 400 on failure.
func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+param+" in path"))
		return uuid.Nil, false
	}
	return id, true
}
