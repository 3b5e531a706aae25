package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/engineeye/internal/assistant"
	"github.com/ukydev/engineeye/internal/auth"
	"github.com/ukydev/engineeye/internal/config"
	"github.com/ukydev/engineeye/internal/db"
	"github.com/ukydev/engineeye/internal/feed"
	"github.com/ukydev/engineeye/internal/forum"
	"github.com/ukydev/engineeye/internal/handlers"
	"github.com/ukydev/engineeye/internal/metrics"
	"github.com/ukydev/engineeye/internal/middleware"
	"github.com/ukydev/engineeye/internal/validation"
	"github.com/ukydev/engineeye/internal/vehicle"
)

// stores are the collections the API is built on.
type stores struct {
	Users    db.UserCollection
	Vehicles db.VehicleCollection
	Posts    db.ForumCollection
}

// app is a fully wired API.
type app struct {
	handler http.Handler
	hub     *feed.Hub
	forum   *forum.Service
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()

	database := client.Database(cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return err
	}

	var mirrors []feed.Mirror
	if cfg.Feed.BrokerURL != "" {
		mirror, err := feed.DialMQTT(cfg.Feed.BrokerURL, cfg.Feed.ClientID, cfg.Feed.Topic)
		if err != nil {
			log.WithError(err).Warn("MQTT mirror disabled")
		} else {
			defer mirror.Close()
			mirrors = append(mirrors, mirror)
		}
	}

	a, err := newApp(cfg, mongoStores(database), metrics.New(), pinger(client), mirrors...)
	if err != nil {
		return err
	}
	defer a.hub.Close()

	if err := a.forum.Refresh(ctx); err != nil {
		log.WithError(err).Warn("Initial forum snapshot failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	return serve(ctx, srv, cfg.Server.ShutdownTimeout, a.hub)
}

// serve runs srv until ctx is done, then closes the hub so open streams end
// and shuts the server down.
func serve(ctx context.Context, srv *http.Server, grace time.Duration, hub *feed.Hub) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server gracefully...")
	hub.Close()

	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

func newApp(cfg *config.Config, s stores, m *metrics.Metrics, health func(context.Context) error, mirrors ...feed.Mirror) (*app, error) {
	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		return nil, err
	}
	v := validation.New()

	hub := feed.NewHub(m, mirrors...)
	forumService := forum.NewService(s.Posts, s.Users, hub, v, m)
	vehicleService := vehicle.NewService(s.Vehicles, v, m)
	assistantClient := assistant.NewClient(assistantConfig(cfg.Assistant), m)

	limiter := middleware.NewRateLimitMiddleware(m)
	router := handlers.NewRouter(handlers.RouterConfig{
		Metrics:  m,
		Auth:     middleware.NewAuthMiddleware(authService, m),
		Users:    handlers.NewAuthHandler(authService, s.Users, v, m),
		Vehicles: handlers.NewVehicleHandler(vehicleService),
		Forum:    handlers.NewForumHandler(forumService, feed.NewHandler(hub, cfg.Feed.Heartbeat)),
		Chat:     handlers.NewChatHandler(assistantClient, v, limiter.RateLimit(cfg.Assistant.RateLimit, time.Minute)),
		Health:   health,
	})

	return &app{handler: router, hub: hub, forum: forumService}, nil
}

func assistantConfig(c config.AssistantConfig) assistant.Config {
	return assistant.Config{
		APIKey:            c.APIKey,
		Model:             c.Model,
		FallbackModel:     c.FallbackModel,
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		RequestsPerMinute: c.UpstreamPerMinute,
	}
}

func mongoStores(database *mongo.Database) stores {
	return stores{
		Users:    &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)},
		Vehicles: &db.MongoVehicleCollection{Collection: database.Collection(db.VehiclesCollection)},
		Posts:    &db.MongoForumCollection{Collection: database.Collection(db.PostsCollection)},
	}
}

func pinger(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}
