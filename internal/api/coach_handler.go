package api

import (
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CoachHandler handles HTTP requests related to coach actions.
type CoachHandler struct {
	coachService service.CoachService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- Request/Response Structs ---

type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

type SetStatusRequest struct {
	Status domain.UserStatus `json:"status" binding:"required,oneof=active inactive"`
}

type AddSupplementRequest struct {
	Name   string `json:"name" binding:"required"`
	Dosage string `json:"dosage"`
}

// AddClientByEmail godoc
// @Summary Link an existing client to the coach
// @Tags Coach
// @Accept json
// @Produce json
// @Param client body AddClientRequest true "Client email"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "User is not a client"
// @Failure 404 {object} gin.H "Client not found"
// @Failure 409 {object} gin.H "Client already has a coach"
// @Router /coach/clients [post]
func (h *CoachHandler) AddClientByEmail(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}

	client, err := h.coachService.AddClientByEmail(c.Request.Context(), id.UserID, req.ClientEmail)
	if err != nil {
		respondWithServiceError(c, err, "Failed to add client.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetManagedClients godoc
// @Summary List the coach's clients
// @Tags Coach
// @Produce json
// @Success 200 {array} UserResponse
// @Router /coach/clients [get]
func (h *CoachHandler) GetManagedClients(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clients, err := h.coachService.GetManagedClients(c.Request.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve clients.")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(clients))
}

func (h *CoachHandler) SetClientStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	client, err := h.coachService.SetClientStatus(c.Request.Context(), id.UserID, clientID, req.Status)
	if err != nil {
		respondWithServiceError(c, err, "Failed to update client status.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// CreateMealPlan godoc
// @Summary Create a meal plan for a client
// @Tags Coach
// @Accept json
// @Produce json
// @Param clientId path string true "Client ID"
// @Param plan body service.MealPlanInput true "Meal plan"
// @Success 201 {object} service.MealPlanDetail
// @Failure 400 {object} gin.H "Invalid plan"
// @Failure 403 {object} gin.H "Client not managed by coach"
// @Router /coach/clients/{clientId}/meal-plans [post]
func (h *CoachHandler) CreateMealPlan(c *gin.Context) {
	var req service.MealPlanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	plan, err := h.coachService.CreateMealPlan(c.Request.Context(), id.UserID, clientID, req)
	if err != nil {
		respondWithServiceError(c, err, "Failed to create meal plan.")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *CoachHandler) GetMealPlans(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	plans, err := h.coachService.GetMealPlans(c.Request.Context(), id.UserID, clientID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve meal plans.")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// ActivateMealPlan godoc
// @Summary Make a meal plan the client's active plan
// @Description The plan governs compliance from the next calendar day.
// @Tags Coach
// @Param planId path string true "Meal plan ID"
// @Success 204
// @Failure 403 {object} gin.H "Plan belongs to another coach"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 409 {object} gin.H "Templates cannot be activated"
// @Router /coach/meal-plans/{planId}/activate [post]
func (h *CoachHandler) ActivateMealPlan(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "planId")
	if !ok {
		return
	}
	if err := h.coachService.ActivateMealPlan(c.Request.Context(), id.UserID, planID); err != nil {
		respondWithServiceError(c, err, "Failed to activate meal plan.")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CoachHandler) CreateWorkoutPlan(c *gin.Context) {
	var req service.WorkoutPlanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	plan, err := h.coachService.CreateWorkoutPlan(c.Request.Context(), id.UserID, clientID, req)
	if err != nil {
		respondWithServiceError(c, err, "Failed to create workout plan.")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *CoachHandler) GetWorkoutPlans(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	plans, err := h.coachService.GetWorkoutPlans(c.Request.Context(), id.UserID, clientID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve workout plans.")
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *CoachHandler) ActivateWorkoutPlan(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "planId")
	if !ok {
		return
	}
	if err := h.coachService.ActivateWorkoutPlan(c.Request.Context(), id.UserID, planID); err != nil {
		respondWithServiceError(c, err, "Failed to activate workout plan.")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CoachHandler) AddSupplement(c *gin.Context) {
	var req AddSupplementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	supp, err := h.coachService.AddSupplement(c.Request.Context(), id.UserID, clientID, req.Name, req.Dosage)
	if err != nil {
		respondWithServiceError(c, err, "Failed to add supplement.")
		return
	}
	c.JSON(http.StatusCreated, supp)
}

func (h *CoachHandler) GetSupplements(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	supps, err := h.coachService.GetSupplements(c.Request.Context(), id.UserID, clientID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve supplements.")
		return
	}
	c.JSON(http.StatusOK, supps)
}

// GetClientPhotos godoc
// @Summary List a client's progress photos with download URLs
// @Tags Coach
// @Produce json
// @Param clientId path string true "Client ID"
// @Success 200 {array} service.PhotoView
// @Router /coach/clients/{clientId}/photos [get]
func (h *CoachHandler) GetClientPhotos(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	photos, err := h.coachService.GetClientPhotos(c.Request.Context(), id.UserID, clientID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve photos.")
		return
	}
	c.JSON(http.StatusOK, photos)
}
