package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshTokens(ctx context.Context, userID, refreshToken string) (*services.TokenPair, error)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	UserID       string `json:"userId"`
	RefreshToken string `json:"refreshToken"`
}

type userDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Username: u.UserName, Email: u.Email, Role: u.Role}
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid json")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Email:    req.Email,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			respondError(c, http.StatusBadRequest, codeConflict, "Username already exists")
			return
		}
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserDTO(user))
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid json")
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			respondError(c, http.StatusBadRequest, "INVALID_CREDENTIALS", "Username or password is incorrect")
			return
		}
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid json")
		return
	}

	pair, err := h.auth.RefreshTokens(c.Request.Context(), req.UserID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidRefreshToken) {
			respondError(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid refresh token")
			return
		}
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *handler) authenticated(c *gin.Context) {
	c.String(http.StatusOK, "You are authenticated")
}

func (h *handler) adminOnly(c *gin.Context) {
	c.String(http.StatusOK, "You are an admin")
}
