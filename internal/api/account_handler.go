package api

import (
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AccountHandler provisions application users for verified identities.
type AccountHandler struct {
	identityService service.IdentityService
}

func NewAccountHandler(identityService service.IdentityService) *AccountHandler {
	return &AccountHandler{identityService: identityService}
}

// --- Request/Response Structs ---

type ProvisionRequest struct {
	Name  string      `json:"name" binding:"required"`
	Email string      `json:"email" binding:"required,email"`
	Role  domain.Role `json:"role" binding:"required,oneof=coach client"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	ClientIDs []string          `json:"clientIds,omitempty"` // Use string ObjectIDs
	CoachID   *string           `json:"coachId,omitempty"`   // Use string ObjectID
}

type MeResponse struct {
	Identity *service.Identity `json:"identity"`
	User     UserResponse      `json:"user"`
}

// Provision godoc
// @Summary Create the application account for the signed-in identity
// @Tags Account
// @Accept json
// @Produce json
// @Param account body ProvisionRequest true "Profile"
// @Success 201 {object} UserResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Missing or invalid token"
// @Failure 409 {object} gin.H "Account already exists"
// @Router /account [post]
func (h *AccountHandler) Provision(c *gin.Context) {
	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	authID := c.GetString(ContextAuthIDKey)
	if authID == "" {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	user, err := h.identityService.Provision(c.Request.Context(), authID, req.Name, req.Email, req.Role)
	if err != nil {
		respondWithServiceError(c, err, "Failed to create account.")
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Me returns the resolved identity of the caller.
func (h *AccountHandler) Me(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	user, err := getUserFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, MeResponse{Identity: id, User: MapUserToResponse(user)})
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	resp := UserResponse{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}
	if resp.Status == "" {
		resp.Status = domain.StatusActive
	}
	if len(user.ClientIDs) > 0 {
		resp.ClientIDs = make([]string, len(user.ClientIDs))
		for i, id := range user.ClientIDs {
			resp.ClientIDs[i] = id.Hex()
		}
	}
	if user.CoachID != nil && !user.CoachID.IsZero() {
		coachIDHex := user.CoachID.Hex()
		resp.CoachID = &coachIDHex
	}
	return resp
}

// MapUsersToResponse converts a slice of domain.User to UserResponse DTOs.
func MapUsersToResponse(users []domain.User) []UserResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = MapUserToResponse(&users[i])
	}
	return userResponses
}
