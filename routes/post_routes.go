package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/controllers"
)

func SetupPostRoutes(api *gin.RouterGroup, postController *controllers.PostController, requireAuth gin.HandlerFunc, feedAuth func(gin.HandlerFunc) []gin.HandlerFunc) {
	posts := api.Group("/posts")
	{
		posts.POST("", requireAuth, postController.CreatePost)
		posts.GET("", feedAuth(postController.GetPosts)...)
		posts.GET("/:id", postController.GetPostDetail)
		posts.DELETE("/:id", requireAuth, postController.DeletePost)
	}

	users := api.Group("/users")
	{
		users.GET("/:userId/posts", postController.GetUserPosts)
	}
}
