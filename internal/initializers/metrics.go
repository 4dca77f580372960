package initializers

import (
	"net/http"
	"net/http/pprof"

	"hackportal/internal/metrics"

	"github.com/gin-gonic/gin"
)

func initMetricsMdlwr(router *gin.Engine) {
	router.Use(metrics.GinMiddleware)
}

// initMetricsServer - /metrics и pprof на отдельном порту, наружу он не публикуется
func initMetricsServer(cfg Config) *http.Server {
	router := gin.New()
	router.GET("/metrics", metrics.Handler())
	initpprof(router)

	return &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: router,
	}
}

func initpprof(router *gin.Engine) {
	debug := router.Group("/debug/pprof")
	debug.GET("/", gin.WrapF(pprof.Index))
	debug.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	debug.GET("/profile", gin.WrapF(pprof.Profile))
	debug.POST("/symbol", gin.WrapF(pprof.Symbol))
	debug.GET("/symbol", gin.WrapF(pprof.Symbol))
	debug.GET("/trace", gin.WrapF(pprof.Trace))
	debug.GET("/:name", func(c *gin.Context) {
		pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
	})
}
