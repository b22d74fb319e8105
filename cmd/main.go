package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/sbilibin2017/gw-user-auth/docs"
	"github.com/sbilibin2017/gw-user-auth/internal/handlers"
	"github.com/sbilibin2017/gw-user-auth/internal/jwt"
	"github.com/sbilibin2017/gw-user-auth/internal/logger"
	"github.com/sbilibin2017/gw-user-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-user-auth/internal/migrations"
	"github.com/sbilibin2017/gw-user-auth/internal/password"
	"github.com/sbilibin2017/gw-user-auth/internal/repositories"
	"github.com/sbilibin2017/gw-user-auth/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/crypto/bcrypt"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds everything read from the environment at startup.
type config struct {
	AppHost  string
	AppPort  string
	LogLevel string

	DatabaseURL    string
	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	JWTSecret        string
	JWTExpireMinutes int
	BcryptCost       int

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisPoolSize     int
	RedisMinIdleConns int
	UserCacheTTL      int // seconds
}

// @title gw-user-auth API
// @version 1.0.0
// @description User registration and bearer token authentication service
// @host localhost:8000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns
// the application, database, JWT, password hashing and Redis configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key string, defaultValue int) (int, error) {
		raw := getEnv(key, strconv.Itoa(defaultValue))
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "0.0.0.0")
	cfg.AppPort = getEnv("APP_PORT", "8000")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	if cfg.PGPort, err = getInt("POSTGRES_PORT", 5432); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", 16); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", 8); err != nil {
		return
	}

	// JWT config
	cfg.JWTSecret = getEnv("JWT_SECRET", jwt.DefaultSecretKey)
	if cfg.JWTExpireMinutes, err = getInt("JWT_EXPIRE_MINUTES", int(jwt.DefaultExpiration/time.Minute)); err != nil {
		return
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		return
	}

	// Redis config, an empty address disables the user cache
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return
	}
	if cfg.RedisPoolSize, err = getInt("REDIS_POOL_SIZE", 10); err != nil {
		return
	}
	if cfg.RedisMinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return
	}
	if cfg.UserCacheTTL, err = getInt("USER_CACHE_TTL_SECONDS", 300); err != nil {
		return
	}

	if cfg.JWTExpireMinutes <= 0 {
		err = errors.New("JWT_EXPIRE_MINUTES must be positive")
		return
	}

	return
}

// dsn returns DATABASE_URL when set, otherwise builds one from the POSTGRES_* parts.
func (c config) dsn() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PGUser, c.PGPassword),
		Host:     fmt.Sprintf("%s:%d", c.PGHost, c.PGPort),
		Path:     c.PGDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// authService is everything the HTTP layer needs from services.AuthService.
type authService interface {
	handlers.Registerer
	handlers.Loginer
	middlewares.Authenticator
}

// newRouter wires handlers and middleware into a chi router.
func newRouter(db *sqlx.DB, auth authService, swaggerURL string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))
	r.Use(middlewares.CORSMiddleware())

	r.Get("/health", handlers.NewHealthHandler())

	// Routes that touch the user store get a request-scoped connection
	r.Group(func(r chi.Router) {
		r.Use(middlewares.ConnMiddleware(db))

		r.Post("/register", handlers.NewRegisterHandler(auth))
		r.Post("/login", handlers.NewLoginHandler(auth))

		r.With(middlewares.AuthMiddleware(auth)).Get("/profile", handlers.NewProfileHandler())
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	return r
}

// run initializes the logger, database, optional Redis cache and HTTP server.
// It applies migrations, sets up routes and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	if cfg.JWTSecret == jwt.DefaultSecretKey {
		logger.Log.Warn("JWT_SECRET is not set, using the insecure default secret")
	}

	// Connect to PostgreSQL
	logger.Log.Infow("Connecting to PostgreSQL", "host", cfg.PGHost, "db", cfg.PGDB, "from_url", cfg.DatabaseURL != "")
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.dsn())
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)

	// Create the users table if absent
	if err := migrations.Up(ctx, db.DB); err != nil {
		return err
	}

	// Initialize repositories
	var userReader services.UserReader = repositories.NewUserReadRepository(db)
	userWriter := repositories.NewUserWriteRepository(db)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis connection error: %w", err)
		}
		defer rdb.Close()

		cache := repositories.NewUserCacheRepository(rdb, time.Duration(cfg.UserCacheTTL)*time.Second)
		userReader = repositories.NewCachedUserReadRepository(userReader, cache)
		logger.Log.Infow("User cache enabled", "addr", cfg.RedisAddr, "ttl_seconds", cfg.UserCacheTTL)
	}

	// Initialize token issuer and password hasher
	tokens := jwt.New(
		jwt.WithSecretKey(cfg.JWTSecret),
		jwt.WithExpiration(time.Duration(cfg.JWTExpireMinutes)*time.Minute),
	)
	hasher := password.New(cfg.BcryptCost)

	// Initialize services
	authService := services.NewAuthService(userReader, userWriter, hasher, tokens)

	swaggerURL := fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           newRouter(db, authService, swaggerURL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
