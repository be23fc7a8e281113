package http

import (
	"github.com/gin-gonic/gin"

	"rani/internal/service"
)

func AddRouters(r *gin.Engine, endpoints service.EndpointSet) {
	api := r.Group("/api")
	{
		api.GET("/corpus", CorpusHandler(endpoints.Corpus))
		api.POST("/corpus/rebuild", CorpusHandler(endpoints.Rebuild))

		api.POST("/sessions", NewSessionHandler(endpoints.NewSession))
		api.POST("/sessions/:id/ask", AskHandler(endpoints.Ask))
		api.GET("/sessions/:id/history", HistoryHandler(endpoints.History))
		api.DELETE("/sessions/:id", EndSessionHandler(endpoints.EndSession))
	}
}
