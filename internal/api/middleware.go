package api

import (
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextAuthIDKey   = "authID"
	ContextIdentityKey = "identity"
	ContextUserKey     = "user"
	ContextRequestID   = "requestID"

	RequestIDHeader = "X-Request-ID"
)

// tokenFromRequest reads the session cookie, falling back to a Bearer header.
func tokenFromRequest(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			return cookie
		}
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// abortWithIdentityError maps identity failures onto status codes.
func abortWithIdentityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingToken), errors.Is(err, service.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnknownUser), errors.Is(err, service.ErrUserInactive):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		loggerFrom(c).WithError(err).Error("identity resolution failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve identity.")
	}
}

// TokenMiddleware only verifies the token. It guards account provisioning,
// where no application user exists yet.
func TokenMiddleware(identity service.IdentityService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authID, err := identity.Verify(tokenFromRequest(c, cookieName))
		if err != nil {
			abortWithIdentityError(c, err)
			return
		}
		c.Set(ContextAuthIDKey, authID)
		c.Next()
	}
}

// AuthMiddleware resolves the caller into an Identity and the backing user.
func AuthMiddleware(identity service.IdentityService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, user, err := identity.Resolve(c.Request.Context(), tokenFromRequest(c, cookieName))
		if err != nil {
			abortWithIdentityError(c, err)
			return
		}
		c.Set(ContextAuthIDKey, id.AuthID)
		c.Set(ContextIdentityKey, id)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := getIdentityFromContext(c)
		if err != nil {
			// This should not happen if AuthMiddleware ran correctly
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}

		for _, allowedRole := range allowedRoles {
			if id.Role == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", id.Role))
	}
}

// RequestLogger logs one line per request and tags it with a request id.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		entry := log.WithFields(logrus.Fields{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
		})
		c.Set("logger", entry)

		c.Next()

		fields := logrus.Fields{
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"clientIp": c.ClientIP(),
		}
		if id, err := getIdentityFromContext(c); err == nil {
			fields["userId"] = id.UserID.Hex()
		}
		entry = entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

// loggerFrom returns the request-scoped logger, or the standard logger when
// RequestLogger did not run.
func loggerFrom(c *gin.Context) logrus.FieldLogger {
	if raw, ok := c.Get("logger"); ok {
		if entry, ok := raw.(logrus.FieldLogger); ok {
			return entry
		}
	}
	return logrus.StandardLogger()
}

// Helper function to get the resolved identity from context (used by handlers)
func getIdentityFromContext(c *gin.Context) (*service.Identity, error) {
	raw, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil, errors.New("identity not found in context")
	}
	id, ok := raw.(*service.Identity)
	if !ok {
		return nil, errors.New("invalid identity type in context")
	}
	return id, nil
}

func getUserFromContext(c *gin.Context) (*domain.User, error) {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, errors.New("user not found in context")
	}
	user, ok := raw.(*domain.User)
	if !ok {
		return nil, errors.New("invalid user type in context")
	}
	return user, nil
}

// mustIdentity aborts with 401 when no identity was resolved.
func mustIdentity(c *gin.Context) (*service.Identity, bool) {
	id, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return nil, false
	}
	return id, true
}

// objectIDParam parses a path parameter, aborting with 400 on bad input.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format.", name))
		return primitive.NilObjectID, false
	}
	return id, true
}
