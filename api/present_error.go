package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/utils"
)

func presentError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, models.BadParameterError):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, models.NotFoundError):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, models.UnprocessableEntityError):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
	case errors.Is(err, models.ConflictError):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		logger := utils.LoggerFromContext(c.Request.Context())
		logger.ErrorContext(c.Request.Context(), "unexpected error", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
	return true
}
