package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/services"
)

type AuthController struct {
	Accounts *services.AccountService
}

func NewAuthController(accounts *services.AccountService) *AuthController {
	return &AuthController{Accounts: accounts}
}

// Register godoc
// @Summary Sign up with username, email and password
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/signup [post]
func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "body", err)
		return
	}

	user, err := ac.Accounts.Register(c.Request.Context(), services.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} services.Session
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "body", err)
		return
	}

	session, err := ac.Accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := ac.Accounts.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
