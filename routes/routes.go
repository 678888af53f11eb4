package routes

import (
	"truckdrive-api/handlers"
	"truckdrive-api/middleware"
	"truckdrive-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Delivery lifecycle info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)

		// Messaging between customer and driver after acceptance
		auth.GET("/contacts", handlers.GetMyContacts)
		auth.GET("/contacts/:id/messages", handlers.GetMessages)
		auth.POST("/contacts/:id/messages", handlers.SendMessage)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/requests", handlers.CreateDeliveryRequest)
		customer.GET("/requests", handlers.GetMyRequests)
		customer.GET("/requests/:id", handlers.GetRequestDetail)
		customer.GET("/requests/:id/bids", handlers.GetRequestBids)
		customer.PUT("/bids/:id/accept", handlers.AcceptBid)
		customer.PUT("/bids/:id/decline", handlers.DeclineBid)
		customer.GET("/stats", handlers.GetCustomerStats)
	}

	// ── Driver routes ──────────────────────────────────────────────
	driver := r.Group("/api/driver")
	driver.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleDriver))
	{
		driver.POST("/profile", handlers.CreateDriverProfile)
		driver.GET("/profile", handlers.GetDriverProfile)
		driver.PUT("/location", handlers.UpdateDriverLocation)
		driver.PUT("/availability", handlers.SetDriverAvailability)

		driver.GET("/requests/available", handlers.GetAvailableRequests)
		driver.POST("/requests/:id/bids", handlers.PlaceBid)
		driver.PUT("/requests/:id/decline", handlers.DeclineRequest)

		driver.GET("/deliveries", handlers.GetMyDeliveries)
		driver.PUT("/deliveries/:id/status", handlers.UpdateDeliveryStatus)
		driver.GET("/stats", handlers.GetDriverStats)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/stats", handlers.AdminGetStats)
		admin.GET("/users", handlers.AdminGetAllUsers)
		admin.GET("/drivers", handlers.AdminGetAllDrivers)
		admin.GET("/requests", handlers.AdminGetAllRequests)
		admin.GET("/bids", handlers.AdminGetAllBids)
		admin.GET("/deliveries", handlers.AdminGetAllDeliveries)
		admin.PUT("/deliveries/:id/status", handlers.AdminForceDeliveryStatus)
		admin.DELETE("/users/:id", handlers.AdminDeleteUser)

		admin.GET("/export", handlers.AdminExportData)
		admin.POST("/import", handlers.AdminImportData)
		admin.POST("/reset", handlers.AdminResetData)
	}
}
