package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/services"
	"github.com/genz-feed/api-go/storage"
	"github.com/genz-feed/api-go/utils"
)

type PostController struct {
	Posts *services.PostService
	Feed  *services.FeedService
}

func NewPostController(posts *services.PostService, feed *services.FeedService) *PostController {
	return &PostController{Posts: posts, Feed: feed}
}

type createPostRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// CreatePost godoc
// @Summary Publish a post
// @Description Accepts JSON, or multipart/form-data with an optional "image" file
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} models.Post
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /posts [post]
func (pc *PostController) CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "body", err)
		return
	}

	input := services.CreatePostInput{Title: req.Title, Content: req.Content}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		img, err := readImage(c)
		if err != nil {
			badRequest(c, "image", err)
			return
		}
		input.Image = img
	}

	post, err := pc.Posts.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// readImage returns the optional "image" form file. A missing file is not
// an error.
func readImage(c *gin.Context) (*storage.Image, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer file.Close()

	// One byte past the limit is enough for the size check to fire.
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("could not read image: %w", err)
	}

	return &storage.Image{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// GetPosts godoc
// @Summary Offset-paged feed
// @Tags posts
// @Produce json
// @Param page query integer false "Page number (default: 1)"
// @Param limit query integer false "Items per page (default: 5, max: 50)"
// @Success 200 {object} PostsPageResponse
// @Router /posts [get]
func (pc *PostController) GetPosts(c *gin.Context) {
	var query PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "query", err)
		return
	}

	page, err := pc.Feed.Page(c.Request.Context(), query.Page, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PostsPageResponse{
		Posts:   page.Items,
		HasMore: page.HasMore,
		Pagination: &PaginationMeta{
			CurrentPage: page.Page,
			PageSize:    page.PageSize,
			TotalItems:  page.Total,
			TotalPages:  page.TotalPages,
		},
	})
}

func (pc *PostController) GetPostDetail(c *gin.Context) {
	postID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, "id", err)
		return
	}

	post, err := pc.Posts.GetByID(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary Delete a post with its likes and comments
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [delete]
func (pc *PostController) DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, "id", err)
		return
	}

	if err := pc.Posts.Delete(c.Request.Context(), postID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Post deleted successfully"})
}

func (pc *PostController) GetUserPosts(c *gin.Context) {
	ownerID, err := utils.ParseID(c.Param("userId"))
	if err != nil {
		badRequest(c, "userId", err)
		return
	}

	posts, err := pc.Posts.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}
