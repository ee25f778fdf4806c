package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmacy-store/internal/domain"
	authsvc "pharmacy-store/internal/service/auth"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName" binding:"required,max=120"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int          `json:"expiresIn"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        *domain.User `json:"user"`
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	user, err := h.deps.Auth.Signup(c.Request.Context(), authsvc.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(c, "email", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	session, err := h.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.Auth.AccessTTLSeconds(),
		ExpiresAt:   session.ExpiresAt,
		User:        session.User,
	})
}

func (h *handlers) verifyEmail(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	user, err := h.deps.Auth.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// forgotPassword answers 202 whether or not the address is registered.
func (h *handlers) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.deps.Auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, "user", err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *handlers) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.deps.Auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeError(c, "user", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.Auth.Logout(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		writeError(c, "user", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	user, err := h.deps.Auth.Me(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
