package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/api"
	"github.com/Tiagocruz3/Brainiacodelab/internal/authstate"
	"github.com/Tiagocruz3/Brainiacodelab/internal/cache"
	"github.com/Tiagocruz3/Brainiacodelab/internal/config"
	"github.com/Tiagocruz3/Brainiacodelab/internal/core"
	"github.com/Tiagocruz3/Brainiacodelab/internal/crypto"
	"github.com/Tiagocruz3/Brainiacodelab/internal/db"
	"github.com/Tiagocruz3/Brainiacodelab/internal/middleware"
	"github.com/Tiagocruz3/Brainiacodelab/internal/persistence"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

func newLogger(mode string) (*zap.Logger, error) {
	if strings.EqualFold(mode, "production") {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	// --- 1. Configuration and logger ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := newLogger(appConfig.LogMode)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded successfully.",
		zap.String("storageBackend", appConfig.StorageBackend),
		zap.String("sessionStore", appConfig.SessionStore))

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()

	// --- 2. Session cache ---
	var sessionCache cache.Cache
	switch appConfig.SessionStore {
	case config.SessionStoreRedis:
		sessionCache, err = cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
	default:
		sessionCache = cache.NewMemoryCache()
	}
	defer sessionCache.Close()
	sessionStore := cache.NewSessionStore(sessionCache, appConfig.RedisKeyPrefix).WithLogger(zapLogger)
	if appConfig.SessionEncryptionKey != "" {
		key, err := crypto.KeyFromBase64(appConfig.SessionEncryptionKey)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Invalid SESSION_ENCRYPTION_KEY", zap.Error(err))
		}
		sealer, err := crypto.NewSealer(key)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to create session sealer", zap.Error(err))
		}
		sessionStore.WithSealer(sealer)
		zapLogger.Info("Persisted sessions are encrypted.")
	}

	// --- 3. Supabase client ---
	// authBackend stays a nil interface when Supabase is not configured.
	var authBackend core.AuthBackend
	supabaseClient, err := supabase.New(supabase.Config{
		URL:          appConfig.SupabaseURL,
		AnonKey:      appConfig.SupabaseAnonKey,
		SessionStore: sessionStore,
		HTTPTimeout:  appConfig.HTTPTimeout,
	}, zapLogger)
	switch {
	case errors.Is(err, supabase.ErrNotConfigured):
		zapLogger.Warn("Supabase URL or anon key missing: authentication will not be available")
	case err != nil:
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create Supabase client", zap.Error(err))
	default:
		authBackend = supabaseClient
		zapLogger.Info("Supabase client initialized.", zap.String("url", supabaseClient.URL()))
	}

	// --- 4. Repositories ---
	var repos *db.Repositories
	var firestoreClient *firestore.Client
	switch appConfig.StorageBackend {
	case config.StorageBackendFirestore:
		firestoreClient, err = db.InitFirestore(initCtx, db.FirestoreConfig{
			ProjectID:             appConfig.FirebaseProjectID,
			CredentialsFile:       appConfig.GoogleApplicationCredentials,
			CredentialsJSONBase64: appConfig.FirebaseServiceAccountJSONBase64,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore", zap.Error(err))
		}
		defer firestoreClient.Close()
		repos, err = db.NewFirestoreRepositories(firestoreClient, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to create Firestore repositories", zap.Error(err))
		}
	case config.StorageBackendMemory:
		repos = db.NewMemoryRepositories()
		zapLogger.Warn("Using in-memory storage: data is lost on restart")
	default:
		if supabaseClient != nil {
			repos = db.NewPostgrestRepositories(supabaseClient)
		}
	}

	var profiles db.ProfileRepository
	if repos != nil {
		profiles = repos.Profiles
	}

	// --- 5. Services ---
	authService := core.NewAuthService(authBackend, profiles, appConfig.PasswordResetRedirect(), zapLogger)
	storageService := core.NewStorageService(repos)

	store := authstate.New(zapLogger)
	store.Initialize(initCtx, authService)

	queue := persistence.NewQueue(appConfig.SyncOperationTimeout, zapLogger)
	syncService := persistence.NewService(storageService, store, queue, zapLogger)
	zapLogger.Info("Core services initialized successfully.")

	// --- 6. Gin engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig.ClientURL, appConfig.SiteURL))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	api.SetupRoutes(router, appConfig, zapLogger, authService, storageService, syncService, store)

	// --- 7. Serve ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 8. Graceful shutdown ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	// Close the store first so open state streams end and Shutdown can finish.
	store.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := queue.Close(shutdownCtx); err != nil {
		zapLogger.Warn("Pending sync operations were not finished", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
