package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faultline/faultline/usecases"
)

func addRoutes(r *gin.Engine, uc usecases.Usecases) {
	r.GET("/liveness", handleLivenessProbe(uc))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/rules", handleListRules(uc))
	r.GET("/decisions", handleListDecisions(uc))
	r.GET("/timers", handleListTimers(uc))
}
