// Package main provides the main entry point for the loyalty platform API
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mercat-labs/loyalty-platform/app/handlers"
	"github.com/mercat-labs/loyalty-platform/app/middleware"
	"github.com/mercat-labs/loyalty-platform/app/router"
	"github.com/mercat-labs/loyalty-platform/app/scheduler"
	"github.com/mercat-labs/loyalty-platform/app/services"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
	"github.com/mercat-labs/loyalty-platform/config"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
)

func main() {
	log.Println("Starting loyalty platform...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	appRouter, stopWorker, err := buildApplication(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	appRouter.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := appRouter.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := appRouter.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase connects to Postgres and configures the connection pool
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections", cfg.MaxOpenConns)
	return db, nil
}

func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.MarketStore{},
		&models.Ticket{},
		&models.PurchaseRecord{},
		&models.GamificationProfile{},
		&models.Badge{},
		&models.ExperienceEntry{},
		&models.Reward{},
		&models.RewardRedemption{},
		&models.SpecialReward{},
		&models.SpecialRewardRedemption{},
		&models.UserNotification{},
		&models.Segment{},
		&models.Campaign{},
		&models.CampaignSegment{},
		&models.CampaignNotification{},
		&models.UserSubscription{},
	)
}

// buildApplication wires services, repositories, flows and handlers
func buildApplication(cfg *config.Config, db *gorm.DB) (router.Router, func(), error) {
	// Services
	tokenService, err := services.NewTokenService(&cfg.JWT)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	storageService := services.NewStorageService(&cfg.Upload)
	visionService := services.NewVisionService(&cfg.Vision)
	llmService := services.NewLLMService(&cfg.LLM)
	channelRouter := services.NewChannelRouter(&cfg.Webpush)

	storeNameCache := services.NewNoopStoreNameCache()
	if cfg.Cache.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr(),
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable, store name cache disabled: %v", err)
		} else {
			storeNameCache = services.NewRedisStoreNameCache(redisClient, cfg.Cache.StoreNameTTL)
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewMarketStoreRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	purchaseRepo := repository.NewPurchaseRecordRepository(db)
	profileRepo := repository.NewGamificationProfileRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	experienceRepo := repository.NewExperienceEntryRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	redemptionRepo := repository.NewRewardRedemptionRepository(db)
	specialRepo := repository.NewSpecialRewardRepository(db)
	specialRedemptionRepo := repository.NewSpecialRewardRedemptionRepository(db)
	userNotificationRepo := repository.NewUserNotificationRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	campaignNotificationRepo := repository.NewCampaignNotificationRepository(db)
	subscriptionRepo := repository.NewUserSubscriptionRepository(db)

	// Business flows
	authFlow := businessflow.NewAuthFlow(userRepo, tokenService, cfg.Security.BcryptCost, db)
	adminFlow := businessflow.NewAdminFlow(userRepo, purchaseRepo, ticketRepo, db)
	marketStoreFlow := businessflow.NewMarketStoreFlow(storeRepo, storeNameCache, db)
	purchaseFlow := businessflow.NewPurchaseHistoryFlow(purchaseRepo, db)
	gamificationFlow := businessflow.NewGamificationFlow(profileRepo, badgeRepo, experienceRepo, userNotificationRepo, db)
	ticketFlow := businessflow.NewTicketFlow(
		ticketRepo, storageService, visionService,
		marketStoreFlow, purchaseFlow, gamificationFlow,
		cfg.Worker.EnableDuplicateDetection, db,
	)
	rewardFlow := businessflow.NewRewardFlow(rewardRepo, redemptionRepo, profileRepo, experienceRepo, db)
	preferenceFlow := businessflow.NewPreferenceFlow(userRepo, purchaseRepo, llmService, db)
	segmentFlow := businessflow.NewSegmentFlow(segmentRepo, purchaseRepo, preferenceFlow, llmService, db)
	specialRewardFlow := businessflow.NewSpecialRewardFlow(specialRepo, specialRedemptionRepo, userRepo, userNotificationRepo, segmentFlow, db)
	notificationFlow := businessflow.NewUserNotificationFlow(userNotificationRepo, db)
	senderFlow := businessflow.NewSenderFlow(campaignNotificationRepo, subscriptionRepo, channelRouter, db)
	campaignFlow := businessflow.NewCampaignFlow(campaignRepo, campaignNotificationRepo, segmentFlow, senderFlow, llmService, db)

	// HTTP layer
	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	h := router.Handlers{
		Auth:         handlers.NewAuthHandler(authFlow),
		Admin:        handlers.NewAdminHandler(authFlow, adminFlow),
		MarketStore:  handlers.NewMarketStoreHandler(marketStoreFlow),
		Ticket:       handlers.NewTicketHandler(ticketFlow),
		Purchase:     handlers.NewPurchaseHandler(purchaseFlow),
		Gamification: handlers.NewGamificationHandler(gamificationFlow),
		Reward:       handlers.NewRewardHandler(rewardFlow, specialRewardFlow),
		Notification: handlers.NewNotificationHandler(notificationFlow),
		CRM:          handlers.NewCRMHandler(segmentFlow, campaignFlow, preferenceFlow),
		Sender:       handlers.NewSenderHandler(senderFlow),
	}
	appRouter := router.NewFiberRouter(cfg, h, authMiddleware)

	// Background worker
	worker := scheduler.NewTicketProcessor(ticketFlow, cfg.Worker, cfg.Logging)
	stopWorker := worker.Start(context.Background())

	return appRouter, stopWorker, nil
}
