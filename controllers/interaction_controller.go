package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/services"
	"github.com/genz-feed/api-go/utils"
)

type InteractionController struct {
	Likes    *services.LikeService
	Comments *services.CommentService
}

func NewInteractionController(likes *services.LikeService, comments *services.CommentService) *InteractionController {
	return &InteractionController{Likes: likes, Comments: comments}
}

// postAndUser resolves the :postId path parameter and the caller.
func postAndUser(c *gin.Context) (postID, userID uint, ok bool) {
	userID, ok = currentUserID(c)
	if !ok {
		return 0, 0, false
	}
	postID, err := utils.ParseID(c.Param("postId"))
	if err != nil {
		badRequest(c, "postId", err)
		return 0, 0, false
	}
	return postID, userID, true
}

// LikePost godoc
// @Summary Like a post
// @Tags interactions
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} LikeCountResponse
// @Failure 409 {object} ErrorResponse "already liked"
// @Router /like/{postId} [post]
func (ic *InteractionController) LikePost(c *gin.Context) {
	postID, userID, ok := postAndUser(c)
	if !ok {
		return
	}

	count, err := ic.Likes.Like(c.Request.Context(), postID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LikeCountResponse{Likes: count})
}

// UnlikePost godoc
// @Summary Remove a like
// @Description Succeeds even when the caller had not liked the post or the post is gone
// @Tags interactions
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} LikeCountResponse
// @Router /like/{postId} [delete]
func (ic *InteractionController) UnlikePost(c *gin.Context) {
	postID, userID, ok := postAndUser(c)
	if !ok {
		return
	}

	count, err := ic.Likes.Unlike(c.Request.Context(), postID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LikeCountResponse{Likes: count})
}

func (ic *InteractionController) GetLikeStatus(c *gin.Context) {
	postID, userID, ok := postAndUser(c)
	if !ok {
		return
	}

	status, err := ic.Likes.Status(c.Request.Context(), postID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// AddComment godoc
// @Summary Comment on a post
// @Tags interactions
// @Accept json
// @Produce json
// @Param postId path string true "Post ID"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /comments/{postId} [post]
func (ic *InteractionController) AddComment(c *gin.Context) {
	postID, userID, ok := postAndUser(c)
	if !ok {
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "body", err)
		return
	}

	comment, err := ic.Comments.AddComment(c.Request.Context(), postID, userID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (ic *InteractionController) GetComments(c *gin.Context) {
	postID, err := utils.ParseID(c.Param("postId"))
	if err != nil {
		badRequest(c, "postId", err)
		return
	}

	comments, err := ic.Comments.ListComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}
