package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/services"
	"github.com/genz-feed/api-go/utils"
)

// respondError maps a service error to its HTTP status and error kind.
// Backend failures are logged and reported without their cause.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ValidationError", Message: verr.Message, Field: verr.Field})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ValidationError", Message: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Message: err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden", Message: err.Error()})
	case errors.Is(err, services.ErrAlreadyLiked):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "AlreadyLiked", Message: "You already liked this post"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Conflict", Message: "Username or email already exists"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: "Invalid credentials"})
	case errors.Is(err, services.ErrUpload):
		slog.Error("image upload failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "UploadError", Message: "Image upload failed"})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "StorageError", Message: "Internal server error"})
	}
}

func badRequest(c *gin.Context, field string, err error) {
	respondError(c, services.NewValidationError(field, err.Error()))
}

// currentUserID returns the authenticated caller or writes 401.
func currentUserID(c *gin.Context) (uint, bool) {
	claims := utils.GetUser(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: "User not found in context"})
		return 0, false
	}
	return claims.UserID, true
}
