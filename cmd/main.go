package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hakancineli/smmmm/internal/handler"
	"github.com/hakancineli/smmmm/internal/middleware"
	"github.com/hakancineli/smmmm/internal/model"
	"github.com/hakancineli/smmmm/internal/notify"
	"github.com/hakancineli/smmmm/internal/vault"
	"github.com/hakancineli/smmmm/pkg/config"
	"github.com/hakancineli/smmmm/pkg/database"
	"github.com/hakancineli/smmmm/pkg/jwtutil"
	"github.com/hakancineli/smmmm/pkg/logger"
	"github.com/hakancineli/smmmm/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting SMMM CRM service...", zap.String("environment", cfg.Server.Env))

	// Initialize database connection and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.Superuser{},
		&model.Tenant{},
		&model.Taxpayer{},
		&model.Payment{},
		&model.ChargeItem{},
		&model.PortalCredential{},
		&model.Note{},
		&model.Message{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire handler dependencies
	jwtUtil := jwtutil.NewJWTUtil(&cfg.JWT)
	handler.InitAuthHandler(jwtUtil)

	credentialVault, err := vault.NewFromBase64(cfg.Vault.Key)
	if err != nil {
		log.Fatal("Failed to initialize credential vault", zap.Error(err))
	}
	handler.InitCredentialHandler(credentialVault)

	handler.InitNotificationHandler(notify.NewWhatsAppGateway(cfg.Notify.GatewayURL, cfg.Notify.Token))

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/public/register", handler.PublicRegister)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/superuser/login", handler.SuperuserLogin)
	auth.POST("/login", handler.TenantLogin)
	auth.POST("/refresh", handler.Refresh)

	// Superuser routes - tenant provisioning
	superuser := e.Group("/superuser")
	superuser.Use(middleware.RequireKind(jwtUtil, jwtutil.KindSuperuser))
	superuser.POST("/tenants", handler.CreateTenant)
	superuser.GET("/tenants", handler.ListTenants)
	superuser.GET("/tenants/:id", handler.GetTenant)
	superuser.PUT("/tenants/:id", handler.UpdateTenant)
	superuser.DELETE("/tenants/:id", handler.DeactivateTenant)

	// Tenant CRM routes - all scoped by the token's tenant id
	crm := e.Group("/crm")
	crm.Use(middleware.RequireKind(jwtUtil, jwtutil.KindTenant))
	crm.GET("/dashboard", handler.Dashboard)

	crm.POST("/taxpayers", handler.CreateTaxpayer)
	crm.GET("/taxpayers", handler.ListTaxpayers)
	crm.GET("/taxpayers/:id", handler.GetTaxpayer)
	crm.PUT("/taxpayers/:id", handler.UpdateTaxpayer)
	crm.DELETE("/taxpayers/:id", handler.DeleteTaxpayer)

	crm.GET("/taxpayers/:id/payments", handler.ListPayments)
	crm.POST("/taxpayers/:id/payments", handler.CreatePayment)
	crm.PUT("/payments/:paymentId", handler.UpdatePayment)
	crm.POST("/taxpayers/:id/periods/:year/:month/pay", handler.MarkPeriodPaid)

	crm.GET("/taxpayers/:id/statement", handler.GetStatement)
	crm.GET("/taxpayers/:id/statement/export", handler.ExportStatementCSV)

	crm.GET("/taxpayers/:id/charges", handler.ListCharges)
	crm.POST("/taxpayers/:id/charges", handler.CreateCharge)
	crm.PUT("/charges/:chargeId", handler.UpdateCharge)
	crm.DELETE("/charges/:chargeId", handler.DeleteCharge)

	crm.GET("/taxpayers/:id/credentials", handler.ListCredentials)
	crm.PUT("/taxpayers/:id/credentials", handler.UpsertCredential)
	crm.DELETE("/taxpayers/:id/credentials/:platform", handler.DeleteCredential)

	crm.GET("/taxpayers/:id/notes", handler.ListNotes)
	crm.POST("/taxpayers/:id/notes", handler.CreateNote)
	crm.PUT("/notes/:noteId", handler.UpdateNote)
	crm.DELETE("/notes/:noteId", handler.DeleteNote)

	crm.GET("/taxpayers/:id/messages", handler.ListMessages)
	crm.POST("/taxpayers/:id/messages", handler.SendMessage)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
