// Package utils holds the JSON envelope shared by every API handler.
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes {"success": true, "data": ...}.
func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error writes {"success": false, "error": msg} with the given status.
func Error(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   msg,
	})
}
