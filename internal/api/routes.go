package api

import (
	"alcyxob/coach-tracker/internal/domain" // Needed for RoleMiddleware
	"alcyxob/coach-tracker/internal/metrics"
	"alcyxob/coach-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Identity   service.IdentityService
	Coach      service.CoachService
	Client     service.ClientService
	Compliance service.ComplianceService
	Messages   service.MessageService
}

func SetupRoutes(
	router *gin.Engine,
	cookieName string,
	services Services,
	limiter *RateLimiter, // nil disables rate limiting
) {
	accountHandler := NewAccountHandler(services.Identity)
	coachHandler := NewCoachHandler(services.Coach)
	clientHandler := NewClientHandler(services.Client)
	complianceHandler := NewComplianceHandler(services.Compliance)
	messageHandler := NewMessageHandler(services.Messages)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiV1 := router.Group("/api/v1")

	// Signed-in identities without an account yet may only provision one.
	apiV1.POST("/account", TokenMiddleware(services.Identity, cookieName), limiter.Middleware(), accountHandler.Provision)

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(services.Identity, cookieName), limiter.Middleware())
	{
		protected.GET("/me", accountHandler.Me)

		// --- Messages (both roles) ---
		protected.POST("/messages", messageHandler.Send)
		protected.GET("/messages/:counterpartId", messageHandler.Thread)

		// --- Coach Specific Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/clients", coachHandler.AddClientByEmail)
			coachGroup.GET("/clients", coachHandler.GetManagedClients)
			coachGroup.PATCH("/clients/:clientId/status", coachHandler.SetClientStatus)

			// --- Plan Management ---
			coachGroup.POST("/clients/:clientId/meal-plans", coachHandler.CreateMealPlan)
			coachGroup.GET("/clients/:clientId/meal-plans", coachHandler.GetMealPlans)
			coachGroup.POST("/meal-plans/:planId/activate", coachHandler.ActivateMealPlan)
			coachGroup.POST("/clients/:clientId/workout-plans", coachHandler.CreateWorkoutPlan)
			coachGroup.GET("/clients/:clientId/workout-plans", coachHandler.GetWorkoutPlans)
			coachGroup.POST("/workout-plans/:planId/activate", coachHandler.ActivateWorkoutPlan)

			coachGroup.POST("/clients/:clientId/supplements", coachHandler.AddSupplement)
			coachGroup.GET("/clients/:clientId/supplements", coachHandler.GetSupplements)
			coachGroup.GET("/clients/:clientId/photos", coachHandler.GetClientPhotos)

			// --- Compliance ---
			coachGroup.GET("/compliance", complianceHandler.CoachOverview)
			coachGroup.GET("/clients/:clientId/compliance", complianceHandler.ClientReport)
		}

		// --- Client Specific Routes ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/today", clientHandler.GetToday)
			clientGroup.POST("/meals/:mealId/complete", clientHandler.CompleteMeal)
			clientGroup.POST("/workouts/complete", clientHandler.CompleteWorkout)
			clientGroup.POST("/supplements/:supplementId/complete", clientHandler.CompleteSupplement)
			clientGroup.POST("/weight", clientHandler.LogWeight)
			clientGroup.GET("/compliance", complianceHandler.OwnReport)

			// --- Progress Photos ---
			clientGroup.POST("/photos/upload-url", clientHandler.RequestUploadURL)
			clientGroup.POST("/photos/confirm", clientHandler.ConfirmUpload)
			clientGroup.GET("/photos", clientHandler.GetMyPhotos)
		}
	}
}
