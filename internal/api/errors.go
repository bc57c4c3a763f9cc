package api

import (
	"alcyxob/coach-tracker/internal/repository"
	"alcyxob/coach-tracker/internal/service"
	"alcyxob/coach-tracker/internal/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorStatus maps service errors to HTTP codes. Anything unlisted is a 500.
var errorStatus = []struct {
	err  error
	code int
}{
	{service.ErrClientNotFound, http.StatusNotFound},
	{service.ErrPlanNotFound, http.StatusNotFound},
	{service.ErrMealNotFound, http.StatusNotFound},
	{service.ErrSupplementNotFound, http.StatusNotFound},
	{service.ErrUploadNotFound, http.StatusNotFound},
	{repository.ErrNotFound, http.StatusNotFound},

	{service.ErrClientNotRole, http.StatusForbidden},
	{service.ErrClientNotManaged, http.StatusForbidden},
	{service.ErrPlanAccessDenied, http.StatusForbidden},
	{service.ErrUploadNotOwned, http.StatusForbidden},
	{service.ErrNotConversationPeer, http.StatusForbidden},

	{service.ErrClientAlreadyAssigned, http.StatusConflict},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrTemplateActivation, http.StatusConflict},
	{service.ErrNoActivePlan, http.StatusConflict},
	{repository.ErrDuplicate, http.StatusConflict},

	{service.ErrInvalidPlan, http.StatusBadRequest},
	{service.ErrInvalidStatus, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrIncompleteProfile, http.StatusBadRequest},
	{service.ErrInvalidSupplement, http.StatusBadRequest},
	{service.ErrUnknownExerciseGroup, http.StatusBadRequest},
	{service.ErrInvalidWeight, http.StatusBadRequest},
	{service.ErrEmptyMessage, http.StatusBadRequest},
	{service.ErrMessageTooLong, http.StatusBadRequest},
	{storage.ErrUnsupportedFileType, http.StatusBadRequest},

	{service.ErrPhotoTooLarge, http.StatusRequestEntityTooLarge},
}

// respondWithServiceError aborts with the mapped status. Unmapped errors are
// logged and answered with fallback so internals do not leak.
func respondWithServiceError(c *gin.Context, err error, fallback string) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			abortWithError(c, m.code, err.Error())
			return
		}
	}
	loggerFrom(c).WithError(err).Error(fallback)
	abortWithError(c, http.StatusInternalServerError, fallback)
}
