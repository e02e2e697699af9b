package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/services"
)

type FeedController struct {
	Feed *services.FeedService
}

func NewFeedController(feed *services.FeedService) *FeedController {
	return &FeedController{Feed: feed}
}

// GetFeed godoc
// @Summary Infinite-scroll feed
// @Description Returns posts older than the cursor, newest first. Pass the returned nextCursor to continue; it is null once the feed is exhausted.
// @Tags feed
// @Produce json
// @Param cursor query string false "Opaque cursor from the previous page"
// @Param limit query integer false "Items per page (default: 5, max: 50)"
// @Success 200 {object} FeedResponse
// @Failure 400 {object} ErrorResponse
// @Router /feed [get]
func (fc *FeedController) GetFeed(c *gin.Context) {
	var query CursorQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "query", err)
		return
	}

	page, err := fc.Feed.CursorPage(c.Request.Context(), query.Cursor, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, FeedResponse{Posts: page.Items, NextCursor: page.NextCursor})
}
