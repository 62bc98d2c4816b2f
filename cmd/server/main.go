package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/blogstack/auth-service/docs"
	"github.com/blogstack/auth-service/internal/api"
	"github.com/blogstack/auth-service/internal/api/handler"
	"github.com/blogstack/auth-service/internal/core/service"
	"github.com/blogstack/auth-service/internal/infrastructure/db/mongo"
	"github.com/blogstack/auth-service/internal/infrastructure/db/redis"
	"github.com/blogstack/auth-service/internal/infrastructure/oauth"
	"github.com/blogstack/auth-service/internal/infrastructure/security"
	"github.com/blogstack/auth-service/internal/pkg/config"
	"github.com/blogstack/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title        Blog Auth Service API
// @version      1.0
// @description  Credential issuance and identity linking for the blog.
// @BasePath     /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "auth-service"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "auth-service",
	})

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "auth-service",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongo.Disconnect(client, shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	store := mongo.NewIdentityStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}

	tokens, err := security.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token issuer")
	}
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	if hasher.Cost() != cfg.BcryptCost {
		log.Warn().Int("configured", cfg.BcryptCost).Int("using", hasher.Cost()).Msg("BCRYPT_COST out of range")
	}

	guard := service.NewGuard(tokens)
	authService := service.NewAuthService(
		store,
		hasher,
		tokens,
		service.Options{TokenTTL: cfg.TokenTTL, SecureCookies: cfg.IsProduction()},
		logger.Component("auth"),
	)

	oauthHandler, rdb := buildGoogleFlow(ctx, cfg, authService, log)
	if rdb != nil {
		defer rdb.Close()
	}

	e := api.NewRouter(api.RouterConfig{
		AuthService: authService,
		Guard:       guard,
		OAuth:       oauthHandler,
		Readiness:   handler.NewHealthDependenciesHandler(db, rdb),
		Logger:      log,
	})

	go serve(e, cfg.Port, log)
	log.Info().Str("port", cfg.Port).Bool("google_oauth", oauthHandler != nil).Msg("auth-service started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("auth-service stopped cleanly")
}

func serve(e *echo.Echo, port string, log zerolog.Logger) {
	if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// buildGoogleFlow wires the redirect flow and its Redis state store. Both are
// nil when GOOGLE_CLIENT_ID is unset.
func buildGoogleFlow(ctx context.Context, cfg *config.Config, authService *service.AuthService, log zerolog.Logger) (*handler.OAuthHandler, *goredis.Client) {
	googleCfg := oauth.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	}
	if !googleCfg.Enabled() {
		return nil, nil
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	provider, err := oauth.NewGoogleProvider(ctx, googleCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise google provider")
	}

	return handler.NewOAuthHandler(
		provider,
		redis.NewStateStore(rdb),
		authService,
		cfg.FrontendURL,
		logger.Component("oauth"),
	), rdb
}
