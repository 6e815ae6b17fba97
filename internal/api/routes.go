package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/neighborhoods", handler.GetNeighborhoods)
		api.GET("/neighborhood-sales", handler.GetNeighborhoodSales)
		api.GET("/market-history", handler.GetMarketHistory)
		api.GET("/market-stats", handler.GetMarketStats)
		api.GET("/market-insights", handler.GetMarketInsights)
		api.GET("/price-distribution", handler.GetPriceDistribution)
		api.GET("/listings", handler.GetListings)
		api.POST("/ai/chat", handler.PostChat)
		api.POST("/contact", handler.PostContact)
		api.POST("/buy-lead", handler.PostBuyLead)
		api.GET("/market-update", handler.GetMarketUpdate)
		api.POST("/market-update", handler.PostMarketUpdate)
	}
}
