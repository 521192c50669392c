package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/catalog"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/events"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/server"
	"github.com/ukydev/fleet-maintenance/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.SetupLogger(cfg)
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set; using the built-in development secret (APP_ENV=development)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	client, err := db.ConnectMongo(connectCtx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	log.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDatabase)
	if cfg.EnsureIndexes {
		if err := db.EnsureIndexes(connectCtx, database); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	users := &db.MongoUserCollection{Collection: database.Collection(db.UserCollectionName)}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	if err := seedAdmin(ctx, cfg, authService, users); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	cat, err := catalog.New(cfg.CatalogCacheTTL)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	fleet := service.NewFleetService(service.Deps{
		Equipment:   &db.MongoEquipmentCollection{Collection: database.Collection(db.EquipmentCollectionName)},
		Scheduled:   &db.MongoScheduledCollection{Collection: database.Collection(db.ScheduledCollectionName)},
		Readings:    &db.MongoReadingCollection{Collection: database.Collection(db.ReadingCollectionName)},
		Completions: &db.MongoCompletionCollection{Collection: database.Collection(db.CompletionCollectionName)},
		History:     &db.MongoHistoryCollection{Collection: database.Collection(db.HistoryCollectionName)},
		Users:       users,
		Catalog:     cat,
		Publisher:   publisher,
		Location:    cfg.Location,
	})

	router := server.NewRouter(cfg, middleware.NewAuthMiddleware(authService, users), server.Handlers{
		Auth:    handlers.NewAuthHandler(authService, users),
		Fleet:   handlers.NewFleetHandler(fleet),
		Catalog: handlers.NewCatalogHandler(cat),
		DB: handlers.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}),
	})

	return server.New(cfg, router).Run(ctx)
}

// newPublisher connects to the MQTT broker, or drops events when none is configured
// or the broker cannot be reached at startup.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.MQTTBroker == "" {
		log.Info("MQTT_BROKER not set; fleet events will not be published")
		return events.NoopPublisher{}
	}
	publisher, err := events.Connect(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
	if err != nil {
		log.WithError(err).WithField("broker", cfg.MQTTBroker).Warn("MQTT unavailable; fleet events will not be published")
		return events.NoopPublisher{}
	}
	log.WithField("broker", cfg.MQTTBroker).Info("Publishing fleet events over MQTT")
	return publisher
}

// seedAdmin creates the configured administrator when it does not exist yet.
func seedAdmin(ctx context.Context, cfg *config.Config, authService *auth.Service, users db.UserCollection) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := users.FindUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	if err := authService.ValidateUsername(cfg.AdminUsername); err != nil {
		return err
	}
	if err := authService.ValidatePassword(cfg.AdminPassword); err != nil {
		return err
	}
	hash, err := authService.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := models.User{
		ID:           primitive.NewObjectID(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.InsertUser(ctx, admin); err != nil {
		return err
	}
	log.WithField("user", admin.Username).Info("Administrator account created")
	return nil
}
