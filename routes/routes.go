package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/controllers"
	"github.com/genz-feed/api-go/metrics"
	"github.com/genz-feed/api-go/middleware"
	"github.com/genz-feed/api-go/services"
)

// Services are the engines the HTTP surface exposes.
type Services struct {
	Accounts *services.AccountService
	Posts    *services.PostService
	Likes    *services.LikeService
	Comments *services.CommentService
	Feed     *services.FeedService
}

type Options struct {
	// FeedRequireAuth puts both feed reads behind the auth middleware.
	FeedRequireAuth bool
	// UploadDir is served at /uploads when images are stored on local disk.
	UploadDir string
}

func SetupRoutes(r *gin.Engine, svc Services, opts Options) {
	authController := controllers.NewAuthController(svc.Accounts)
	postController := controllers.NewPostController(svc.Posts, svc.Feed)
	feedController := controllers.NewFeedController(svc.Feed)
	interactionController := controllers.NewInteractionController(svc.Likes, svc.Comments)

	requireAuth := middleware.AuthMiddleware(svc.Accounts)
	feedAuth := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if opts.FeedRequireAuth {
			return []gin.HandlerFunc{requireAuth, h}
		}
		return []gin.HandlerFunc{h}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir+"/uploads")
	}

	api := r.Group("/api")
	SetupAuthRoutes(api, authController, requireAuth)
	SetupPostRoutes(api, postController, requireAuth, feedAuth)
	SetupFeedRoutes(api, feedController, feedAuth)
	SetupInteractionRoutes(api, interactionController, requireAuth)
}

func SetupAuthRoutes(api *gin.RouterGroup, authController *controllers.AuthController, requireAuth gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authController.Register)
		auth.POST("/login", authController.Login)
		auth.GET("/me", requireAuth, authController.Me)
	}
}
