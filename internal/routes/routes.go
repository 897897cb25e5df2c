package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/client-portal/internal/auth"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/handlers"
	"github.com/BruksfildServices01/client-portal/internal/middleware"
	"github.com/BruksfildServices01/client-portal/internal/scheduler"
	ucclient "github.com/BruksfildServices01/client-portal/internal/usecase/client"
	paymentuc "github.com/BruksfildServices01/client-portal/internal/usecase/payment"
	"github.com/BruksfildServices01/client-portal/internal/usecase/token"
)

// Deps are the singletons the HTTP layer is built from.
type Deps struct {
	DB         *gorm.DB
	Clients    domain.Repository
	Issuer     *auth.Issuer
	Payments   *paymentuc.Orchestrator
	CreateLead *ucclient.CreateLead
	Onboarding *ucclient.StartOnboarding
	Cancel     *ucclient.Cancel
	Tokens     *token.Service
	Scheduler  *scheduler.Scheduler
	Logger     logrus.FieldLogger

	CORSAllowedOrigins []string
}

func RegisterRoutes(r *gin.Engine, d Deps) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORSMiddleware(d.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(d.DB, d.Issuer)
	meHandler := handlers.NewMeHandler(d.DB)
	clientHandler := handlers.NewClientHandler(d.DB, d.Clients, d.CreateLead, d.Onboarding, d.Cancel, d.Tokens)
	paymentHandler := handlers.NewPaymentHandler(d.Payments, d.Logger)
	portalHandler := handlers.NewPortalHandler(d.Clients, d.Cancel)
	publicHandler := handlers.NewPublicHandler(d.Tokens, d.Onboarding)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)
	jobsHandler := handlers.NewJobsHandler(d.Scheduler)

	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		api.GET("/free-analysis/:token", publicHandler.FreeAnalysis)
		api.POST("/free-analysis/:token/start", publicHandler.Start)

		// ------------------------------
		// STAFF
		// ------------------------------
		staff := api.Group("/")
		staff.Use(
			middleware.AuthMiddleware(d.Issuer),
			middleware.RequireRole(auth.RoleStaff, auth.RoleAdmin),
		)
		{
			staff.GET("/me", meHandler.GetMe)

			staff.GET("/clients", clientHandler.List)
			staff.POST("/clients", clientHandler.Create)
			staff.GET("/clients/:id", clientHandler.Get)
			staff.POST("/clients/:id/invite", clientHandler.Invite)
			staff.POST("/clients/:id/cancel", clientHandler.Cancel)
			staff.POST("/clients/:id/free-analysis-token", clientHandler.IssueFreeAnalysisToken)

			staff.POST("/clients/:id/hold", paymentHandler.CreateHold)
			staff.POST("/clients/:id/croa-signed", paymentHandler.CroaSigned)
			staff.POST("/clients/:id/capture", paymentHandler.Capture)
			staff.POST("/clients/:id/release", paymentHandler.Release)
			staff.POST("/clients/:id/retry-charge", paymentHandler.RetryCharge)

			staff.GET("/audit-logs", auditLogsHandler.List)

			staff.GET("/jobs", jobsHandler.List)
			staff.POST("/jobs/:name/run", jobsHandler.Run)
		}

		// ------------------------------
		// CLIENT PORTAL
		// ------------------------------
		portal := api.Group("/portal")
		portal.Use(
			middleware.AuthMiddleware(d.Issuer),
			middleware.RequireRole(auth.RoleClient),
		)
		{
			portal.GET("/access", portalHandler.Access)
			portal.POST("/cancel", portalHandler.Cancel)
			portal.GET("/:resource", middleware.StageGate(d.Clients), portalHandler.Resource)
		}
	}
}
