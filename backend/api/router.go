package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mergebox/backend/service/merge"
)

type Router struct {
	runner *merge.Runner
	log    *zap.Logger
}

func NewRouter(runner *merge.Runner, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{runner: runner, log: log}
	engine := gin.New()
	engine.Use(gin.Recovery())
	r.register(engine)
	return engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func (r *Router) register(engine *gin.Engine) {
	engine.Use(corsMiddleware())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	engine.GET("/document", r.getDocument)
	engine.GET("/summary", r.getSummary)
	engine.POST("/sync", r.sync)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// getDocument 返回当前（可能已合并过的）路由文档
func (r *Router) getDocument(c *gin.Context) {
	data, err := r.runner.DocumentJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// getSummary 返回最近一次合并运行的统计
func (r *Router) getSummary(c *gin.Context) {
	summary, ok := r.runner.LastSummary()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no merge run yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// sync 手动触发一次合并
func (r *Router) sync(c *gin.Context) {
	summary, err := r.runner.Run(c.Request.Context())
	if err != nil {
		r.log.Error("manual sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}
	c.JSON(http.StatusOK, summary)
}
