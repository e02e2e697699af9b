package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/controllers"
)

func SetupInteractionRoutes(api *gin.RouterGroup, interactionController *controllers.InteractionController, requireAuth gin.HandlerFunc) {
	like := api.Group("/like", requireAuth)
	{
		like.POST("/:postId", interactionController.LikePost)
		like.DELETE("/:postId", interactionController.UnlikePost)
		like.GET("/:postId", interactionController.GetLikeStatus)
	}

	comments := api.Group("/comments")
	{
		comments.POST("/:postId", requireAuth, interactionController.AddComment)
		comments.GET("/:postId", interactionController.GetComments)
	}
}
