package middleware

import "github.com/gin-gonic/gin"

// auditorIDKey is the key used to store the authenticated auditor's ID
// in the request context.
const auditorIDKey = contextKey("auditorID")

// GetAuditorIDFromContext retrieves the authenticated auditor ID from
// the Gin context. It returns the ID and a boolean indicating if it
// was found.
func GetAuditorIDFromContext(c *gin.Context) (string, bool) {
	val := c.Request.Context().Value(auditorIDKey)
	if val == nil {
		return "", false
	}
	auditorID, ok := val.(string)
	if !ok {
		return "", false
	}
	return auditorID, true
}
