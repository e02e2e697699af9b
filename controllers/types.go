package controllers

import (
	"github.com/genz-feed/api-go/models"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int64 `json:"totalPages"`
}

type PostsPageResponse struct {
	Posts      []models.Post   `json:"posts"`
	HasMore    bool            `json:"hasMore"`
	Pagination *PaginationMeta `json:"pagination"`
}

type FeedResponse struct {
	Posts      []models.Post `json:"posts"`
	NextCursor *string       `json:"nextCursor"`
}

type LikeCountResponse struct {
	Likes int64 `json:"likes"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PageQuery struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=5"`
}

type CursorQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit,default=5"`
}
