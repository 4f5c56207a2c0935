package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getHome reports the service identity on the root route.
func getHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Corrispettivi PEL API v1"})
}
