// Command server starts the clipstream API HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clipstream/internal/api"
	"clipstream/internal/auth"
	"clipstream/internal/observability/logging"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/server"
	"clipstream/internal/storage"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", "", "HTTP listen address")
	dataPath := flag.String("data", "", "path to JSON datastore")
	storageDriver := flag.String("storage-driver", "", "datastore driver (json or postgres)")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string")
	postgresMaxConns := flag.Int("postgres-max-conns", 0, "maximum connections in the Postgres pool")
	postgresMinConns := flag.Int("postgres-min-conns", 0, "minimum idle connections maintained by the Postgres pool")
	postgresMaxConnLifetime := flag.Duration("postgres-max-conn-lifetime", 0, "maximum lifetime for a pooled Postgres connection")
	postgresMaxConnIdle := flag.Duration("postgres-max-conn-idle", 0, "maximum idle time for a pooled Postgres connection")
	postgresHealthInterval := flag.Duration("postgres-health-interval", 0, "interval between Postgres health checks")
	postgresAcquireTimeout := flag.Duration("postgres-acquire-timeout", 0, "timeout when acquiring a Postgres connection from the pool")
	postgresAppName := flag.String("postgres-app-name", "", "application_name reported to Postgres")
	tlsCert := flag.String("tls-cert", "", "path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "path to TLS private key file")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "log format (json or text)")
	accessTTL := flag.Duration("access-token-ttl", 0, "access token lifetime")
	refreshTTL := flag.Duration("refresh-token-ttl", 0, "refresh token lifetime")
	globalRPS := flag.Float64("rate-global-rps", 0, "global request rate limit in requests per second")
	globalBurst := flag.Int("rate-global-burst", 0, "global rate limit burst allowance")
	authLimit := flag.Int("rate-auth-limit", 0, "maximum auth attempts per window for a single IP")
	authWindow := flag.Duration("rate-auth-window", 0, "window for counting auth attempts")
	redisAddr := flag.String("rate-redis-addr", "", "Redis address for distributed auth throttling")
	redisPassword := flag.String("rate-redis-password", "", "Redis password for distributed auth throttling")
	redisTimeout := flag.Duration("rate-redis-timeout", 0, "timeout for Redis operations")
	corsOrigins := flag.String("cors-origins", "", "comma separated browser origins allowed to call the API")
	mediaEndpoint := flag.String("media-endpoint", "", "object storage endpoint (e.g. http://127.0.0.1:9000)")
	mediaPublicEndpoint := flag.String("media-public-endpoint", "", "public endpoint used for media URLs")
	mediaBucket := flag.String("media-bucket", "", "object storage bucket name")
	mediaPrefix := flag.String("media-prefix", "", "object storage key prefix for uploads")
	mediaRegion := flag.String("media-region", "", "object storage region")
	mediaAccessKey := flag.String("media-access-key", "", "object storage access key")
	mediaSecretKey := flag.String("media-secret-key", "", "object storage secret key")
	mediaUseSSL := flag.Bool("media-use-ssl", false, "enable TLS for object storage requests")
	flag.Parse()

	logger := logging.Init(logging.Config{
		Level:  firstNonEmpty(*logLevel, os.Getenv("CLIPSTREAM_LOG_LEVEL")),
		Format: firstNonEmpty(*logFormat, os.Getenv("CLIPSTREAM_LOG_FORMAT")),
	})
	auditLogger := logging.WithComponent(logger, "audit")
	recorder := metrics.Default()

	accessSecret := strings.TrimSpace(os.Getenv("CLIPSTREAM_ACCESS_TOKEN_SECRET"))
	refreshSecret := strings.TrimSpace(os.Getenv("CLIPSTREAM_REFRESH_TOKEN_SECRET"))
	if accessSecret == "" || refreshSecret == "" {
		logger.Error("CLIPSTREAM_ACCESS_TOKEN_SECRET and CLIPSTREAM_REFRESH_TOKEN_SECRET are required")
		os.Exit(1)
	}

	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     resolveDuration(*accessTTL, "CLIPSTREAM_ACCESS_TOKEN_TTL", 0),
		RefreshTTL:    resolveDuration(*refreshTTL, "CLIPSTREAM_REFRESH_TOKEN_TTL", 0),
		Issuer:        firstNonEmpty(os.Getenv("CLIPSTREAM_TOKEN_ISSUER")),
	})
	if err != nil {
		logger.Error("failed to configure token issuer", "error", err)
		os.Exit(1)
	}

	mediaCfg := storage.MediaConfig{
		Endpoint:       firstNonEmpty(*mediaEndpoint, os.Getenv("CLIPSTREAM_MEDIA_ENDPOINT")),
		PublicEndpoint: firstNonEmpty(*mediaPublicEndpoint, os.Getenv("CLIPSTREAM_MEDIA_PUBLIC_ENDPOINT")),
		Bucket:         firstNonEmpty(*mediaBucket, os.Getenv("CLIPSTREAM_MEDIA_BUCKET")),
		Prefix:         firstNonEmpty(*mediaPrefix, os.Getenv("CLIPSTREAM_MEDIA_PREFIX")),
		Region:         firstNonEmpty(*mediaRegion, os.Getenv("CLIPSTREAM_MEDIA_REGION")),
		AccessKey:      firstNonEmpty(*mediaAccessKey, os.Getenv("CLIPSTREAM_MEDIA_ACCESS_KEY")),
		SecretKey:      firstNonEmpty(*mediaSecretKey, os.Getenv("CLIPSTREAM_MEDIA_SECRET_KEY")),
		UseSSL:         resolveBool(*mediaUseSSL, "CLIPSTREAM_MEDIA_USE_SSL"),
	}
	media := storage.NewMediaStore(mediaCfg)
	if media.Enabled() {
		logger.Info("media uploads enabled", "bucket", mediaCfg.Bucket)
	} else {
		logger.Warn("media storage not configured, uploads disabled")
	}

	driver := strings.ToLower(firstNonEmpty(*storageDriver, os.Getenv("CLIPSTREAM_STORAGE_DRIVER"), "json"))
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	var store storage.Repository
	switch driver {
	case "json":
		dataFile := firstNonEmpty(*dataPath, os.Getenv("CLIPSTREAM_DATA"), "data/store.json")
		store, err = storage.NewStorage(dataFile)
	case "postgres":
		dsn := firstNonEmpty(*postgresDSN, os.Getenv("CLIPSTREAM_POSTGRES_DSN"), os.Getenv("DATABASE_URL"))
		if dsn == "" {
			logger.Error("postgres storage selected without DSN")
			os.Exit(1)
		}
		var pgOptions []storage.PostgresOption
		maxConns := resolveInt(*postgresMaxConns, "CLIPSTREAM_POSTGRES_MAX_CONNS")
		minConns := resolveInt(*postgresMinConns, "CLIPSTREAM_POSTGRES_MIN_CONNS")
		if maxConns > 0 || minConns > 0 {
			pgOptions = append(pgOptions, storage.WithPostgresPoolLimits(int32(minConns), int32(maxConns)))
		}
		maxLifetime := resolveDuration(*postgresMaxConnLifetime, "CLIPSTREAM_POSTGRES_MAX_CONN_LIFETIME", 0)
		maxIdle := resolveDuration(*postgresMaxConnIdle, "CLIPSTREAM_POSTGRES_MAX_CONN_IDLE", 0)
		if maxLifetime > 0 || maxIdle > 0 {
			pgOptions = append(pgOptions, storage.WithPostgresConnLifetimes(maxLifetime, maxIdle))
		}
		if healthInterval := resolveDuration(*postgresHealthInterval, "CLIPSTREAM_POSTGRES_HEALTH_INTERVAL", 0); healthInterval > 0 {
			pgOptions = append(pgOptions, storage.WithPostgresHealthCheckInterval(healthInterval))
		}
		if acquireTimeout := resolveDuration(*postgresAcquireTimeout, "CLIPSTREAM_POSTGRES_ACQUIRE_TIMEOUT", 0); acquireTimeout > 0 {
			pgOptions = append(pgOptions, storage.WithPostgresAcquireTimeout(acquireTimeout))
		}
		if appName := firstNonEmpty(*postgresAppName, os.Getenv("CLIPSTREAM_POSTGRES_APP_NAME")); appName != "" {
			pgOptions = append(pgOptions, storage.WithPostgresApplicationName(appName))
		}
		pgOptions = append(pgOptions, storage.WithPostgresMedia(mediaCfg))
		store, err = storage.NewPostgresRepository(bootCtx, dsn, pgOptions...)
	default:
		logger.Error("unsupported storage driver", "driver", driver)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("failed to open datastore", "error", err)
		os.Exit(1)
	}

	sessions := auth.NewSessionManager(issuer, store)
	handler := api.NewHandler(store, sessions, media)
	handler.Logger = logging.WithComponent(logger, "api")
	handler.Metrics = recorder

	rateCfg := server.RateLimitConfig{
		GlobalRPS:     resolveFloat(*globalRPS, "CLIPSTREAM_RATE_GLOBAL_RPS"),
		GlobalBurst:   resolveInt(*globalBurst, "CLIPSTREAM_RATE_GLOBAL_BURST"),
		AuthLimit:     resolveInt(*authLimit, "CLIPSTREAM_RATE_AUTH_LIMIT"),
		AuthWindow:    resolveDuration(*authWindow, "CLIPSTREAM_RATE_AUTH_WINDOW", time.Minute),
		RedisAddr:     firstNonEmpty(*redisAddr, os.Getenv("CLIPSTREAM_RATE_REDIS_ADDR")),
		RedisPassword: firstNonEmpty(*redisPassword, os.Getenv("CLIPSTREAM_RATE_REDIS_PASSWORD")),
		RedisTimeout:  resolveDuration(*redisTimeout, "CLIPSTREAM_RATE_REDIS_TIMEOUT", 2*time.Second),
	}

	listenAddr := firstNonEmpty(*addr, os.Getenv("CLIPSTREAM_ADDR"), ":8080")
	srv, err := server.New(handler, server.Config{
		Addr: listenAddr,
		TLS: server.TLSConfig{
			CertFile: firstNonEmpty(*tlsCert, os.Getenv("CLIPSTREAM_TLS_CERT")),
			KeyFile:  firstNonEmpty(*tlsKey, os.Getenv("CLIPSTREAM_TLS_KEY")),
		},
		RateLimit: rateCfg,
		CORS: server.CORSConfig{
			AllowedOrigins: splitAndTrim(firstNonEmpty(*corsOrigins, os.Getenv("CLIPSTREAM_CORS_ORIGINS"))),
		},
		Logger:      logger,
		AuditLogger: auditLogger,
		Metrics:     recorder,
	})
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("clipstream API listening", "addr", listenAddr, "storage", driver)
		logger.Info("metrics endpoint available", "path", "/metrics")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errs:
		logger.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}

	if closer, ok := store.(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(ctx); err != nil {
			logger.Warn("failed to close datastore", "error", err)
		}
	}

	logger.Info("server stopped")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func splitAndTrim(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolveFloat(flagValue float64, envKey string) float64 {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := strconv.ParseFloat(strings.TrimSpace(env), 64); err == nil {
			return value
		}
	}
	return 0
}

func resolveInt(flagValue int, envKey string) int {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := strconv.Atoi(strings.TrimSpace(env)); err == nil {
			return value
		}
	}
	return 0
}

func resolveDuration(flagValue time.Duration, envKey string, fallback time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := time.ParseDuration(env); err == nil {
			return value
		}
	}
	if fallback > 0 {
		return fallback
	}
	return 0
}

func resolveBool(flagValue bool, envKey string) bool {
	if flagValue {
		return true
	}
	if env, ok := os.LookupEnv(envKey); ok {
		if value, err := strconv.ParseBool(strings.TrimSpace(env)); err == nil {
			return value
		}
	}
	return false
}
