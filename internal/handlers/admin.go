package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classware/api/internal/models"
	"classware/api/internal/service"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	users, err := h.accountService.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, newUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": items})
}

type adminCreateRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Username       string `json:"username" binding:"required"`
	Phone          string `json:"phone"`
	SecurityAnswer string `json:"securityAnswer"`
	Role           string `json:"role" binding:"required"`
}

// AdminCreateUser provisions an account with a one-time temporary password.
// The plaintext appears in this response and nowhere else, ever.
func (h HandlerSet) AdminCreateUser(c *gin.Context) {
	var req adminCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	role, ok := models.RoleFromLabel(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_role"})
		return
	}

	user, tempPassword, err := h.accountService.AdminCreateUser(c.Request.Context(), service.AdminCreateInput{
		Email:          req.Email,
		Username:       req.Username,
		Phone:          req.Phone,
		SecurityAnswer: req.SecurityAnswer,
		Role:           role,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":              newUserResponse(user),
		"temporaryPassword": tempPassword,
	})
}

type adminUpdateRequest struct {
	Email          *string `json:"email" binding:"omitempty,email"`
	Password       *string `json:"password" binding:"omitempty,min=8"`
	Username       *string `json:"username"`
	Phone          *string `json:"phone"`
	SecurityAnswer *string `json:"securityAnswer"`
	Role           *string `json:"role"`
	Status         *string `json:"status" binding:"omitempty,oneof=active inactive"`
}

func (h HandlerSet) AdminUpdateUser(c *gin.Context) {
	id := c.Param("id")

	var req adminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	input := service.AdminUpdateInput{
		Email:          req.Email,
		Password:       req.Password,
		Username:       req.Username,
		Phone:          req.Phone,
		SecurityAnswer: req.SecurityAnswer,
	}

	if req.Role != nil {
		role, ok := models.RoleFromLabel(*req.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_role"})
			return
		}
		input.Role = &role
	}

	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		input.Status = &status
	}

	user, err := h.accountService.AdminUpdateUser(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

func (h HandlerSet) AdminDeleteUser(c *gin.Context) {
	if err := h.accountService.AdminDeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
