package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classware/api/internal/middleware"
	"classware/api/internal/service"
)

func (h HandlerSet) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	user, err := h.accountService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

type profileUpdateRequest struct {
	Email          *string `json:"email" binding:"omitempty,email"`
	Password       *string `json:"password" binding:"omitempty,min=8"`
	Username       *string `json:"username"`
	Phone          *string `json:"phone"`
	SecurityAnswer *string `json:"securityAnswer"`
}

// UpdateProfile applies a partial update to the caller's own record; omitted
// fields keep their stored values.
func (h HandlerSet) UpdateProfile(c *gin.Context) {
	subjectID, _, ok := middleware.SubjectFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	user, err := h.accountService.UpdateProfile(c.Request.Context(), subjectID, service.ProfileUpdate{
		Email:          req.Email,
		Password:       req.Password,
		Username:       req.Username,
		Phone:          req.Phone,
		SecurityAnswer: req.SecurityAnswer,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
