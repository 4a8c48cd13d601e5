package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-cashbook-api/internal/config"
	"go-cashbook-api/internal/handler"
	"go-cashbook-api/internal/middleware"
	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/scheduler"
	"go-cashbook-api/internal/seed"
	"go-cashbook-api/internal/service"
	"go-cashbook-api/internal/ws"
	"go-cashbook-api/pkg/database"
	"go-cashbook-api/pkg/jwt"
	"go-cashbook-api/pkg/logger"
	"go-cashbook-api/pkg/redisstore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	// 2. Setup Database
	db, err := database.ConnectPostgres(database.Options{DSN: cfg.DSN()}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	if err := database.Migrate(db, model.AllModels()...); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// 3. Seed roles, privileges and the platform admin
	if err := seed.Run(db, seed.Admin{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword}, log); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	tokens, err := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("jwt setup failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	// 5. Dependency Injection (Wiring Layers)
	companyRepo := repository.NewCompanyRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	subRepo := repository.NewSubscriptionRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)

	authService := service.NewAuthService(userRepo, roleRepo, companyRepo, subRepo, tokens, db, wsHub, log)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo, cfg.Location)
	txService := service.NewTransactionService(txRepo, categoryRepo, customerRepo, supplierRepo, db, wsHub, cfg.Location, log)
	saleService := service.NewSaleService(saleRepo, purchaseRepo, txRepo, categoryRepo, customerRepo, supplierRepo, db, wsHub, cfg.Location, log)
	customerService := service.NewCustomerService(customerRepo, txRepo, cfg.Location)
	supplierService := service.NewSupplierService(supplierRepo, txRepo, cfg.Location)
	categoryService := service.NewCategoryService(categoryRepo)
	dashService := service.NewDashboardService(txRepo, cfg.Location)
	exportService := service.NewExportService(txRepo, cfg.Location)
	subService := service.NewSubscriptionService(subRepo, db, wsHub, log)
	companyService := service.NewCompanyService(companyRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)
	txHandler := handler.NewTransactionHandler(txService, exportService)
	saleHandler := handler.NewSaleHandler(saleService)
	customerHandler := handler.NewCustomerHandler(customerService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	dashHandler := handler.NewDashboardHandler(dashService)
	subHandler := handler.NewSubscriptionHandler(subService)
	backofficeHandler := handler.NewBackofficeHandler(companyService)

	// 6. Background jobs
	sched := scheduler.New(cfg.Location, log)
	if err := sched.AddJob(cfg.SubscriptionCron, scheduler.NewSubscriptionExpiryJob(subService)); err != nil {
		log.Fatal().Err(err).Msg("invalid SUBSCRIPTION_CRON")
	}
	sched.Start()

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Cashbook API v1.0",
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New())

	authLimiter := middleware.AuthLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, limiterStorage(ctx, cfg, log))

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authLimiter, authHandler.Login)
	auth.Post("/register", authLimiter, authHandler.Register)
	auth.Post("/reset-password", authLimiter, authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(tokens, userRepo), authHandler.Heartbeat)

	api.Post("/webhooks/gateway", middleware.RequireWebhookSecret(cfg.WebhookSecret), subHandler.Webhook)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(tokens, userRepo))

	// Subscription stays readable when it lapsed so the client can renew
	protected.Get("/subscription", subHandler.Get)

	tenant := protected.Group("", middleware.RequireActiveCompany(companyRepo, model.RolePlatformAdmin))

	// Dashboard
	tenant.Get("/dashboard/summary", middleware.RequirePrivilege(model.PrivDashboardView), dashHandler.GetSummary)
	tenant.Get("/dashboard/cash-flow", middleware.RequirePrivilege(model.PrivDashboardView), dashHandler.GetCashFlow)

	// Transactions
	tenant.Get("/transactions", middleware.RequirePrivilege(model.PrivTransactionView), txHandler.List)
	tenant.Get("/transactions/export", middleware.RequirePrivilege(model.PrivTransactionExport), txHandler.Export)
	tenant.Get("/transactions/:id", middleware.RequirePrivilege(model.PrivTransactionView), txHandler.Get)
	tenant.Post("/transactions", middleware.RequirePrivilege(model.PrivTransactionCreate), txHandler.Create)
	tenant.Put("/transactions/:id", middleware.RequirePrivilege(model.PrivTransactionUpdate), txHandler.Update)
	tenant.Delete("/transactions/:id", middleware.RequirePrivilege(model.PrivTransactionDelete), txHandler.Delete)
	tenant.Post("/transactions/:id/pay", middleware.RequirePrivilege(model.PrivTransactionPay), txHandler.ConfirmPayment)
	tenant.Post("/transactions/:id/cancel-payment", middleware.RequirePrivilege(model.PrivTransactionPay), txHandler.CancelPayment)

	// Sales and purchases
	tenant.Get("/sales", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.ListSales)
	tenant.Get("/sales/:id", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetSale)
	tenant.Post("/sales", middleware.RequirePrivilege(model.PrivSaleManage), saleHandler.CreateSale)
	tenant.Put("/sales/:id/schedule", middleware.RequirePrivilege(model.PrivSaleManage), saleHandler.RescheduleSale)
	tenant.Delete("/sales/:id", middleware.RequirePrivilege(model.PrivSaleManage), saleHandler.DeleteSale)

	tenant.Get("/purchases", middleware.RequirePrivilege(model.PrivPurchaseView), saleHandler.ListPurchases)
	tenant.Get("/purchases/:id", middleware.RequirePrivilege(model.PrivPurchaseView), saleHandler.GetPurchase)
	tenant.Post("/purchases", middleware.RequirePrivilege(model.PrivPurchaseManage), saleHandler.CreatePurchase)
	tenant.Put("/purchases/:id/schedule", middleware.RequirePrivilege(model.PrivPurchaseManage), saleHandler.ReschedulePurchase)
	tenant.Delete("/purchases/:id", middleware.RequirePrivilege(model.PrivPurchaseManage), saleHandler.DeletePurchase)

	// Customers and suppliers
	partyRoutes(tenant.Group("/customers"), customerHandler, model.PrivCustomerManage, model.PrivSaleView, model.PrivTransactionView)
	partyRoutes(tenant.Group("/suppliers"), supplierHandler, model.PrivSupplierManage, model.PrivPurchaseView, model.PrivTransactionView)

	// Categories
	tenant.Get("/categories", categoryHandler.List)
	tenant.Post("/categories", middleware.RequirePrivilege(model.PrivCategoryManage), categoryHandler.Create)
	tenant.Delete("/categories/:id", middleware.RequirePrivilege(model.PrivCategoryManage), categoryHandler.Delete)

	// User Management Routes (with privilege checks)
	tenant.Get("/users", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUsers)
	tenant.Get("/users/:id", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUser)
	tenant.Post("/users", middleware.RequirePrivilege(model.PrivUserCreate), userHandler.CreateUser)
	tenant.Put("/users/:id", middleware.RequirePrivilege(model.PrivUserUpdate), userHandler.UpdateUser)
	tenant.Delete("/users/:id", middleware.RequirePrivilege(model.PrivUserDelete), userHandler.DeleteUser)
	tenant.Put("/users/:id/privileges", middleware.RequirePrivilege(model.PrivUserUpdatePrivilege), userHandler.UpdateUserPrivileges)

	tenant.Get("/roles", roleHandler.GetRoles)
	tenant.Get("/privileges", roleHandler.GetPrivileges)

	// ============ BACK-OFFICE ============
	admin := protected.Group("/admin",
		middleware.RequireRole(model.RolePlatformAdmin),
		middleware.RequirePrivilege(model.PrivCompanyAdmin),
	)
	admin.Get("/companies", backofficeHandler.ListCompanies)
	admin.Get("/companies/:id", backofficeHandler.GetCompany)
	admin.Post("/companies/:id/activate", backofficeHandler.Activate)
	admin.Post("/companies/:id/deactivate", backofficeHandler.Deactivate)

	// WebSocket Route
	app.Use("/ws", middleware.RequireAuth(tokens, userRepo), handler.UpgradeWS)
	app.Get("/ws", handler.ServeWS(wsHub))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic().Err(err).Msg("server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	sched.Stop()
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	cancel()

	log.Info().Msg("Server exited")
}

// partyRoutes reads are open to the manage privilege or any of view
func partyRoutes(r fiber.Router, h *handler.PartyHandler, manage string, view ...string) {
	read := middleware.RequireAnyPrivilege(append([]string{manage}, view...)...)
	r.Get("/", read, h.List)
	r.Get("/:id", read, h.Get)
	r.Get("/:id/ledger", read, h.Ledger)
	r.Post("/", middleware.RequirePrivilege(manage), h.Create)
	r.Put("/:id", middleware.RequirePrivilege(manage), h.Update)
	r.Delete("/:id", middleware.RequirePrivilege(manage), h.Delete)
}

// limiterStorage shares login counters through Redis when configured so
// every API instance sees the same budget
func limiterStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) fiber.Storage {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login limiter stays in memory")
		return nil
	}
	return redisstore.New(rdb, "cashbook:limiter:")
}
