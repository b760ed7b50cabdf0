package shared

import (
	"github.com/gin-gonic/gin"

	"github.com/yx118/MoonTVPlus/internal/httperror"
)

// WriteError writes a structured error response.
func WriteError(c *gin.Context, err error) {
	if c == nil {
		return
	}
	status, payload := httperror.Response(err)
	c.JSON(status, payload)
}

// BindJSON parses the request body as JSON.
func BindJSON(c *gin.Context, out any) bool {
	if c == nil {
		return false
	}
	if err := c.ShouldBindJSON(out); err != nil {
		WriteError(c, httperror.NewValidationError(err))
		return false
	}
	return true
}
