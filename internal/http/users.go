package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/services"
)

type UsersController struct {
	users *services.UserService
}

func NewUsersController(users *services.UserService) *UsersController {
	return &UsersController{users: users}
}

// Register creates a new account.
func (controller *UsersController) Register(c *gin.Context) {
	var input services.RegistrationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := controller.users.Register(input)
	if err != nil {
		respondServiceError(c, err, "register user")
		return
	}
	respondCreated(c, user)
}

// CheckAvailability reports whether a username or email is still free.
func (controller *UsersController) CheckAvailability(c *gin.Context) {
	resp := gin.H{}
	if username := c.Query("username"); username != "" {
		free, err := controller.users.IsUsernameAvailable(username)
		if err != nil {
			respondServiceError(c, err, "check username")
			return
		}
		resp["username_available"] = free
	}
	if email := c.Query("email"); email != "" {
		free, err := controller.users.IsEmailAvailable(email)
		if err != nil {
			respondServiceError(c, err, "check email")
			return
		}
		resp["email_available"] = free
	}
	if len(resp) == 0 {
		respondBadRequest(c, "username or email query parameter is required")
		return
	}
	c.IndentedJSON(http.StatusOK, resp)
}

// GetProfile returns the authenticated user's account.
func (controller *UsersController) GetProfile(c *gin.Context) {
	user, err := controller.users.GetUserByID(auth.GetUserID(c))
	if err != nil {
		respondServiceError(c, err, "get profile")
		return
	}
	c.IndentedJSON(http.StatusOK, user)
}

// UpdateProfile changes the authenticated user's email and names.
func (controller *UsersController) UpdateProfile(c *gin.Context) {
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := controller.users.UpdateProfile(auth.GetUserID(c), input)
	if err != nil {
		respondServiceError(c, err, "update profile")
		return
	}
	c.IndentedJSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword replaces the authenticated user's password.
func (controller *UsersController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "current_password and new_password are required")
		return
	}

	if err := controller.users.ChangePassword(auth.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "change password")
		return
	}
	respondSuccess(c, "password changed")
}

// --- Admin endpoints ---

// GetAllUsers returns one page of accounts.
func (controller *UsersController) GetAllUsers(c *gin.Context) {
	page, err := controller.users.GetAllUsers(parsePagination(c))
	if err != nil {
		respondServiceError(c, err, "list users")
		return
	}
	c.IndentedJSON(http.StatusOK, page)
}

// GetUser returns a single account.
func (controller *UsersController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := controller.users.GetUserByID(id)
	if err != nil {
		respondServiceError(c, err, "get user")
		return
	}
	c.IndentedJSON(http.StatusOK, user)
}

// DeleteUser removes an account and everything it owns.
func (controller *UsersController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.users.DeleteUser(id); err != nil {
		respondServiceError(c, err, "delete user")
		return
	}
	respondSuccess(c, "user deleted")
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

// GrantRole adds a role to an account.
func (controller *UsersController) GrantRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "role is required")
		return
	}
	if err := controller.users.GrantRole(id, req.Role); err != nil {
		respondServiceError(c, err, "grant role")
		return
	}
	respondSuccess(c, "role granted")
}

// RevokeRole removes a role from an account.
func (controller *UsersController) RevokeRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "role is required")
		return
	}
	if err := controller.users.RevokeRole(id, req.Role); err != nil {
		respondServiceError(c, err, "revoke role")
		return
	}
	respondSuccess(c, "role revoked")
}

type enableRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetEnabled toggles whether an account can sign in.
func (controller *UsersController) SetEnabled(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req enableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "enabled is required")
		return
	}
	if err := controller.users.SetEnabled(id, *req.Enabled); err != nil {
		respondServiceError(c, err, "set enabled")
		return
	}
	respondSuccess(c, "user updated")
}
