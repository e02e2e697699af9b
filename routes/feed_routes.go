package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/controllers"
)

func SetupFeedRoutes(api *gin.RouterGroup, feedController *controllers.FeedController, feedAuth func(gin.HandlerFunc) []gin.HandlerFunc) {
	api.GET("/feed", feedAuth(feedController.GetFeed)...)
}
