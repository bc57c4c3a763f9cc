package api

import (
	"alcyxob/coach-tracker/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ClientHandler handles HTTP requests made by clients about their own day.
type ClientHandler struct {
	clientService service.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// --- Request/Response Structs ---

// CompleteWorkoutRequest lists the exercise groups done today. An empty list
// logs a rest day.
type CompleteWorkoutRequest struct {
	GroupIDs []string `json:"completedGroupIds"`
}

type LogWeightRequest struct {
	WeightKg float64    `json:"weightKg" binding:"required,gt=0"`
	LoggedAt *time.Time `json:"loggedAt"`
}

type RequestUploadURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName"`
}

// GetToday godoc
// @Summary Get today's plan, completions and score
// @Tags Client
// @Produce json
// @Success 200 {object} service.TodayView
// @Router /client/today [get]
func (h *ClientHandler) GetToday(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	view, err := h.clientService.Today(c.Request.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to load today's plan.")
		return
	}
	c.JSON(http.StatusOK, view)
}

// CompleteMeal godoc
// @Summary Mark a meal eaten today
// @Tags Client
// @Param mealId path string true "Meal ID"
// @Success 204
// @Failure 404 {object} gin.H "Meal not found"
// @Router /client/meals/{mealId}/complete [post]
func (h *ClientHandler) CompleteMeal(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	mealID, ok := objectIDParam(c, "mealId")
	if !ok {
		return
	}
	if err := h.clientService.CompleteMeal(c.Request.Context(), id.UserID, id.OwnerID, mealID); err != nil {
		respondWithServiceError(c, err, "Failed to record meal.")
		return
	}
	c.Status(http.StatusNoContent)
}

// CompleteWorkout godoc
// @Summary Record today's workout or rest day
// @Tags Client
// @Accept json
// @Produce json
// @Param workout body CompleteWorkoutRequest true "Completed exercise groups"
// @Success 200 {object} domain.WorkoutCompletion
// @Failure 400 {object} gin.H "Unknown exercise group"
// @Failure 409 {object} gin.H "No workout plan governs today"
// @Router /client/workouts/complete [post]
func (h *ClientHandler) CompleteWorkout(c *gin.Context) {
	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	completion, err := h.clientService.CompleteWorkout(c.Request.Context(), id.UserID, id.OwnerID, req.GroupIDs)
	if err != nil {
		respondWithServiceError(c, err, "Failed to record workout.")
		return
	}
	c.JSON(http.StatusOK, completion)
}

func (h *ClientHandler) CompleteSupplement(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	supplementID, ok := objectIDParam(c, "supplementId")
	if !ok {
		return
	}
	if err := h.clientService.CompleteSupplement(c.Request.Context(), id.UserID, id.OwnerID, supplementID); err != nil {
		respondWithServiceError(c, err, "Failed to record supplement.")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ClientHandler) LogWeight(c *gin.Context) {
	var req LogWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	entry, err := h.clientService.LogWeight(c.Request.Context(), id.UserID, id.OwnerID, req.WeightKg, req.LoggedAt)
	if err != nil {
		respondWithServiceError(c, err, "Failed to log weight.")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RequestUploadURL godoc
// @Summary Get a pre-signed URL for uploading a progress photo
// @Description The client uploads straight to storage with PUT, then confirms.
// @Tags Client
// @Accept json
// @Produce json
// @Param upload body RequestUploadURLRequest true "File name and content type"
// @Success 200 {object} service.UploadURLResponse
// @Failure 400 {object} gin.H "Unsupported content type"
// @Router /client/photos/upload-url [post]
func (h *ClientHandler) RequestUploadURL(c *gin.Context) {
	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	resp, err := h.clientService.RequestPhotoUpload(c.Request.Context(), id.UserID, req.FileName, req.ContentType)
	if err != nil {
		respondWithServiceError(c, err, "Failed to generate upload URL.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Confirm an uploaded progress photo
// @Tags Client
// @Accept json
// @Produce json
// @Param upload body ConfirmUploadRequest true "Object key returned by upload-url"
// @Success 201 {object} domain.ProgressPhoto
// @Failure 403 {object} gin.H "Object key belongs to another client"
// @Failure 404 {object} gin.H "Upload not found"
// @Failure 413 {object} gin.H "Photo too large"
// @Router /client/photos/confirm [post]
func (h *ClientHandler) ConfirmUpload(c *gin.Context) {
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	photo, err := h.clientService.ConfirmPhotoUpload(c.Request.Context(), id.UserID, id.OwnerID, req.ObjectKey, req.FileName)
	if err != nil {
		respondWithServiceError(c, err, "Failed to confirm upload.")
		return
	}
	c.JSON(http.StatusCreated, photo)
}

func (h *ClientHandler) GetMyPhotos(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	photos, err := h.clientService.GetMyPhotos(c.Request.Context(), id.UserID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve photos.")
		return
	}
	c.JSON(http.StatusOK, photos)
}
