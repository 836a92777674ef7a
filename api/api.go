package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faultline/faultline/usecases"
)

type Configuration struct {
	Host string
	Port string

	RequestTimeout time.Duration
}

func NewServer(router *gin.Engine, conf Configuration, uc usecases.Usecases) *http.Server {
	addRoutes(router, uc)

	timeout := conf.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", conf.Host, conf.Port),
		WriteTimeout: timeout,
		ReadTimeout:  timeout,
		IdleTimeout:  timeout,
		Handler:      router,
	}
}

func InitRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}
