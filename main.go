package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"benefit-distribution-system/handlers"
	"benefit-distribution-system/models"
	"benefit-distribution-system/services"
	"benefit-distribution-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}
	oauthClientID := os.Getenv("OAUTH_CLIENT_ID")
	oauthClientSecret := os.Getenv("OAUTH_CLIENT_SECRET")
	oauthRedirectURI := os.Getenv("OAUTH_REDIRECT_URI")
	if oauthClientID == "" || oauthClientSecret == "" || oauthRedirectURI == "" {
		log.Fatal("OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET and OAUTH_REDIRECT_URI must be set")
	}

	forumBaseURL := getEnv("FORUM_BASE_URL", "https://linux.do")
	authorizeURL := getEnv("OAUTH_AUTHORIZE_URL", "https://connect.linux.do/oauth2/authorize")
	tokenURL := getEnv("OAUTH_TOKEN_URL", "https://connect.linux.do/oauth2/token")
	userInfoURL := getEnv("OAUTH_USER_INFO_URL", "https://connect.linux.do/api/user")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Benefit{},
		&models.BenefitCode{},
		&models.Claim{},
		&models.PersonalBlacklistEntry{},
		&models.GlobalBlacklistEntry{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	tokens := services.NewTokenIssuer(jwtSecret, 24*time.Hour)
	userService := services.NewUserService(db)
	guard := services.NewAccessGuard(db)
	reputation := services.NewReputationClient(forumBaseURL)
	evaluator := services.NewEligibilityEvaluator(db, guard, reputation)
	allocator := services.NewClaimAllocator(db, evaluator)
	benefitService := services.NewBenefitService(db, guard, evaluator, allocator)
	blacklistService := services.NewBlacklistService(db)

	oauthClient := services.NewOAuthClient(
		oauthClientID, oauthClientSecret, oauthRedirectURI,
		authorizeURL, tokenURL, userInfoURL,
	)
	loginStates := services.NewLoginStateStore(10 * time.Minute)
	loginStates.StartSweeper(1 * time.Minute)
	authService := services.NewAuthService(oauthClient, loginStates, userService, tokens, forumBaseURL)

	app := fiber.New(fiber.Config{
		AppName: "benefit-distribution-system",
	})

	allowedOrigins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	originList := strings.Split(allowedOrigins, ",")
	for i, origin := range originList {
		originList[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(originList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	handlers.SetupAuthRoutes(app, authService, userService, tokens)
	handlers.SetupUserRoutes(app, userService, tokens)
	handlers.SetupBenefitRoutes(app, benefitService, tokens, userService)
	handlers.SetupBlacklistRoutes(app, blacklistService, tokens, userService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trustSync := workers.NewTrustSyncWorker(db, forumBaseURL)
	trustSync.Start(ctx)

	port := getEnv("APP_PORT", "8080")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on port %s", port)

	<-ctx.Done()
	log.Println("Shutting down...")
	loginStates.StopSweeper()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("Shutdown complete")
}
