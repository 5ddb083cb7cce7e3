package utils

import (
	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// JSONErrorWithData sends a structured error response that also carries a payload
func JSONErrorWithData(c *gin.Context, status int, err error, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
		"data":    data,
	})
}

// AbortWithError sends a structured error response and stops the handler chain
func AbortWithError(c *gin.Context, status int, err error, message string) {
	JSONError(c, status, err, message)
	c.Abort()
}

// RequestID returns the id assigned to the current request, if any
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
