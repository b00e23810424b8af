package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spatialprefix/internal/api/handlers"
	"spatialprefix/internal/api/middleware"
	"spatialprefix/internal/index"
	"spatialprefix/internal/metrics"
)

type Router struct {
	index           *index.Service
	documentHandler *handlers.DocumentHandler
	searchHandler   *handlers.SearchHandler
	geohashHandler  *handlers.GeohashHandler
	maxBodyBytes    int64
}

// NewRouter wires the handlers for svc. Request bodies are capped at
// maxBodyBytes; zero means no cap.
func NewRouter(svc *index.Service, maxBodyBytes int64) *Router {
	return &Router{
		index:           svc,
		documentHandler: handlers.NewDocumentHandler(svc),
		searchHandler:   handlers.NewSearchHandler(svc),
		geohashHandler:  handlers.NewGeohashHandler(),
		maxBodyBytes:    maxBodyBytes,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.RequestID())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"documents":  r.index.Count(),
			"terms":      r.index.Terms(),
			"generation": r.index.Generation(),
			"grid":       r.index.Grid().Name(),
		})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := engine.Group("/")
	api.Use(middleware.BodyLimit(r.maxBodyBytes))
	{
		docs := api.Group("/documents")
		{
			docs.POST("", r.documentHandler.Create)
			docs.PUT("/:id", r.documentHandler.Put)
			docs.GET("/:id", r.documentHandler.Get)
			docs.DELETE("/:id", r.documentHandler.Delete)
		}

		api.POST("/search", r.searchHandler.Search)
		api.GET("/nearby", r.searchHandler.Nearby)
		api.POST("/tokens", r.searchHandler.Tokens)

		geohash := api.Group("/geohash")
		{
			geohash.GET("/encode", r.geohashHandler.Encode)
			geohash.GET("/decode/:hash", r.geohashHandler.Decode)
		}
	}
}
