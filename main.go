package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"season-reward-system/handlers"
	"season-reward-system/models"
	"season-reward-system/services"
	"season-reward-system/utils"
	"season-reward-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PlayerProgress{},
		&models.PlayerMirror{},
		&models.SeasonProgress{},
		&models.SeasonRewardGrant{},
		&models.SeasonPassPurchase{},
		&models.SeasonEventParticipation{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// R2 is only needed when season content lives in the content bucket.
	if os.Getenv("SEASON_CONTENT_KEY") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	}

	content, err := services.LoadSeasonContent()
	if err != nil {
		log.Fatal("failed to load season content:", err)
	}

	curve := services.NewLevelCurve(nil)
	progressStore := services.NewProgressStore(db, curve)
	ledger := services.NewRewardLedger(db, progressStore)
	tracker := services.NewSeasonProgressTracker(db, content, curve, progressStore)
	battlePass := services.NewBattlePassEngine(db, content, ledger, progressStore)
	distributor := services.NewLeaderboardRewardDistributor(db, content, tracker, ledger)
	events := services.NewSeasonEventService(db, content, ledger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Profile mirror keeps leaderboard usernames local. Optional — skipped
	// when no profile service is configured.
	if profileURL := os.Getenv("PROFILE_SERVICE_URL"); profileURL != "" {
		serviceToken := os.Getenv("SEASON_SERVICE_TOKEN")
		if serviceToken == "" {
			log.Fatal("SEASON_SERVICE_TOKEN environment variable not set")
		}
		syncWorker := workers.NewPlayerSyncWorker(db, profileURL, "/api/v1/public/profiles", serviceToken)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  PROFILE_SERVICE_URL not set — leaderboard usernames will be empty")
	}

	services.StartSeasonScheduler(tracker, distributor)

	handlers.SetupSeasonRoutes(app, content, tracker, battlePass, distributor, events)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Season scheduler running (rank refresh + close sweep)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
