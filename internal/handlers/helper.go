package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseStringIDParam returns the trimmed path parameter, answering 400 when it is empty
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
			Code:    CodeValidationFailed,
		})
		return ""
	}
	return idStr
}

func parseBoolQuery(c *gin.Context, param string) bool {
	value, err := strconv.ParseBool(c.Query(param))
	return err == nil && value
}
