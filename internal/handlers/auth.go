package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classware/api/internal/models"
	"classware/api/internal/ratelimit"
	"classware/api/internal/service"
)

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// newUserResponse renders a principal for the wire. The password hash never
// crosses this boundary; the role crosses it only through its label.
func newUserResponse(user models.Principal) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Phone:     user.Phone,
		Role:      user.Role.Label(),
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type registerRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Username       string `json:"username" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	SecurityAnswer string `json:"securityAnswer" binding:"required"`
}

func (r registerRequest) toInput() service.RegisterInput {
	return service.RegisterInput{
		Email:          r.Email,
		Password:       r.Password,
		Username:       r.Username,
		Phone:          r.Phone,
		SecurityAnswer: r.SecurityAnswer,
	}
}

func (h HandlerSet) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}

func (h HandlerSet) RegisterAdmin(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	user, err := h.authService.RegisterAdmin(c.Request.Context(), req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	if err := h.throttle(c, "login:"+req.Email+":"+c.ClientIP()); err != nil {
		h.respondError(c, err)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: newUserResponse(user)})
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	if err := h.throttle(c, "login:"+req.Email+":"+c.ClientIP()); err != nil {
		h.respondError(c, err)
		return
	}

	token, user, err := h.authService.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: newUserResponse(user)})
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

func (h HandlerSet) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	token, user, err := h.authService.GoogleLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: newUserResponse(user)})
}

type forgotRequest struct {
	Step        string `json:"step" binding:"required,oneof=request verify reset"`
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// Forgot drives the three-step recovery protocol. The step field selects the
// transition; verify never consumes the code, reset always does.
func (h HandlerSet) Forgot(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	ctx := c.Request.Context()

	switch req.Step {
	case "request":
		if err := h.throttle(c, "forgot:"+req.Email); err != nil {
			h.respondError(c, err)
			return
		}
		if err := h.resetService.Request(ctx, req.Email); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "recovery code sent"})

	case "verify":
		if req.Code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
			return
		}
		if err := h.resetService.Verify(ctx, req.Email, req.Code); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "code verified"})

	case "reset":
		if req.Code == "" || req.NewPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
			return
		}
		if err := h.resetService.Reset(ctx, req.Email, req.Code, req.NewPassword); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password reset"})
	}
}

// Logout is stateless: tokens are not revocable before natural expiry, so
// this only exists for the SPA to have a terminal endpoint to call.
func (h HandlerSet) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// throttle enforces the fixed-window limit but fails open when redis is
// unreachable: losing the throttle must not take logins down with it.
func (h HandlerSet) throttle(c *gin.Context, key string) error {
	err := h.limiter.Allow(c.Request.Context(), key)
	if errors.Is(err, ratelimit.ErrUnavailable) {
		h.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		return nil
	}
	return err
}
