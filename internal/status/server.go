// internal/status/server.go
package status

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "status")

// Serve runs the status endpoint on addr. snapshot is rendered as JSON under
// /status; Prometheus metrics live under /metrics. Runs until the listener
// fails; callers start it in its own goroutine.
func Serve(addr string, snapshot func() any) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, snapshot())
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Infof("status endpoint listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Errorf("status endpoint failed: %v", err)
	}
}
