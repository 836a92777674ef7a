package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faultline/faultline/usecases"
)

func handleLivenessProbe(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		var one int
		err := uc.ExecutorGetter.GetExecutor().
			QueryRow(c.Request.Context(), "SELECT 1").Scan(&one)
		if presentError(c, err) {
			return
		}
		c.Status(http.StatusOK)
	}
}
