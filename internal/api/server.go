package api

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/trailpost/trailpost/config"
	"github.com/trailpost/trailpost/infra/queue"
	"github.com/trailpost/trailpost/internal/api/rest/handlers"
	"github.com/trailpost/trailpost/internal/api/rest/middleware"
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/helper"
	"github.com/trailpost/trailpost/internal/logging"
	"github.com/trailpost/trailpost/internal/repository"
	"github.com/trailpost/trailpost/internal/services"
)

func StartServer(cfg config.Config) {
	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION + SEED (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260901

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := db.AutoMigrate(
		&domain.Account{},
		&domain.Profile{},
		&domain.Post{},
		&domain.AuditLog{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("migration successful")

	// ---------- Infra ----------
	logger := logging.NewDefault()
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	defer func() { _ = kafkaProducer.Close() }()

	authHelper := helper.SetupAuth(
		cfg.AccessSecret,
		cfg.RefreshSecret,
		cfg.AccessTTL,
		cfg.RefreshTTL,
		cfg.BcryptCost,
	)

	// ---------- Repositories ----------
	accountRepo := repository.NewAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ---------- Services ----------
	audit := services.NewAuditRecorder(auditRepo, logger)
	authSvc := services.NewAuthService(
		accountRepo,
		authHelper,
		kafkaProducer,
		audit,
		logger,
		services.AuthServiceConfig{
			OTPLength:    cfg.OTPLength,
			VerifyOTPTTL: cfg.VerifyOTPTTL,
			ResetOTPTTL:  cfg.ResetOTPTTL,
		},
	)
	postSvc := services.NewPostService(postRepo, audit)

	seedAdmin(db, cfg, authHelper, logger)

	// ---------- Handlers ----------
	gate := middleware.AuthMiddleware(authHelper, accountRepo)
	adminOnly := middleware.RequireRoles(domain.RoleAdmin)

	authHandler := handlers.NewAuthHandler(authSvc, cfg.IsProd(), cfg.AccessTTL, cfg.RefreshTTL)
	authHandler.SetupRoutes(app, gate)

	accountHandler := handlers.NewAccountHandler(authSvc)
	accountHandler.SetupRoutes(app, gate)

	adminHandler := handlers.NewAdminHandler(authSvc)
	adminHandler.SetupRoutes(app, gate, adminOnly)

	postHandler := handlers.NewPostHandler(postSvc)
	postHandler.SetupRoutes(app, gate)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	log.Println("listening on", cfg.ServerPort)
	log.Fatal(app.Listen(cfg.ServerPort))
}

// seedAdmin creates the configured admin account when absent so a fresh
// deployment has a way in. The account is born verified and active.
func seedAdmin(db *gorm.DB, cfg config.Config, auth helper.Auth, logger logging.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}

	email := helper.NormalizeEmail(cfg.AdminEmail)
	var existing domain.Account
	err := db.First(&existing, "email = ?", email).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		logger.Warn(context.Background(), "admin seed lookup failed", "err", err)
		return
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		logger.Warn(context.Background(), "admin seed hash failed", "err", err)
		return
	}

	admin := domain.Account{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Admin",
		Role:         domain.RoleAdmin,
		IsVerified:   true,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Warn(context.Background(), "admin seed create failed", "err", err)
		return
	}
	logger.Info(context.Background(), "admin account seeded", "email", email)
}
