package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/services"
)

type PasswordResetController struct {
	resets *services.PasswordResetService
}

func NewPasswordResetController(resets *services.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{resets: resets}
}

type initiateResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// InitiateReset requests a reset email. The response is the same
// whether or not the email has an account.
func (controller *PasswordResetController) InitiateReset(c *gin.Context) {
	var req initiateResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email is required")
		return
	}

	if err := controller.resets.InitiateReset(req.Email); err != nil {
		respondInternalError(c, err, "initiate password reset")
		return
	}
	respondSuccess(c, "if the email has an account, a reset link has been sent")
}

// ValidateToken reports whether a reset token is still usable.
func (controller *PasswordResetController) ValidateToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondBadRequest(c, "token query parameter is required")
		return
	}

	valid, err := controller.resets.ValidateToken(token)
	if err != nil {
		respondInternalError(c, err, "validate reset token")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"valid": valid})
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ResetPassword consumes a reset token and sets the new password.
func (controller *PasswordResetController) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "token and new_password are required")
		return
	}

	if err := controller.resets.ResetPassword(req.Token, req.NewPassword); err != nil {
		respondServiceError(c, err, "reset password")
		return
	}
	respondSuccess(c, "password has been reset")
}
