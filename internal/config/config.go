package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Tiagocruz3/Brainiacodelab/internal/crypto"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	StorageBackendSupabase  = "supabase"
	StorageBackendFirestore = "firestore"
	StorageBackendMemory    = "memory"
)

// Session stores selectable through SESSION_STORE.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string `mapstructure:"PORT"`
	GinMode   string `mapstructure:"GIN_MODE"`
	LogMode   string `mapstructure:"LOG_MODE"`
	ClientURL string `mapstructure:"CLIENT_URL"`

	// Supabase project. Both values empty means the backend is disabled and
	// every backend-dependent operation reports "client not initialized".
	SupabaseURL       string `mapstructure:"SUPABASE_URL"`
	SupabaseAnonKey   string `mapstructure:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret string `mapstructure:"SUPABASE_JWT_SECRET"`
	// SiteURL is the origin the password-reset email redirects back to.
	SiteURL string `mapstructure:"SITE_URL"`

	StorageBackend                   string `mapstructure:"STORAGE_BACKEND"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	SessionStore   string `mapstructure:"SESSION_STORE"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`
	// SessionEncryptionKey is a base64 AES-256 key. When set the persisted
	// session is encrypted.
	SessionEncryptionKey string `mapstructure:"SESSION_ENCRYPTION_KEY"`

	HTTPTimeout          time.Duration `mapstructure:"HTTP_TIMEOUT"`
	SyncOperationTimeout time.Duration `mapstructure:"SYNC_OPERATION_TIMEOUT"`
}

var boundKeys = []string{
	"PORT",
	"GIN_MODE",
	"LOG_MODE",
	"CLIENT_URL",
	"SUPABASE_URL",
	"SUPABASE_ANON_KEY",
	"SUPABASE_JWT_SECRET",
	"SITE_URL",
	"STORAGE_BACKEND",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"SESSION_STORE",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"REDIS_KEY_PREFIX",
	"SESSION_ENCRYPTION_KEY",
	"HTTP_TIMEOUT",
	"SYNC_OPERATION_TIMEOUT",
}

// LoadConfig reads configuration from the environment. Outside release mode
// a .env file in the working directory is loaded first; a missing file is
// not an error.
func LoadConfig() (*Config, error) {
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		_ = godotenv.Load()
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8787")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("SITE_URL", "http://localhost:5173")
	v.SetDefault("STORAGE_BACKEND", StorageBackendSupabase)
	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "brainiacodelab")
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("SYNC_OPERATION_TIMEOUT", time.Duration(0))

	for _, key := range boundKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	cfg.SupabaseURL = strings.TrimRight(strings.TrimSpace(cfg.SupabaseURL), "/")
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted. Supabase settings
// are optional on purpose.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendSupabase, StorageBackendMemory:
	case StorageBackendFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required when STORAGE_BACKEND=firestore")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: supabase, firestore, memory")
	}

	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return errors.New("SESSION_STORE must be one of: memory, redis")
	}

	if c.SessionEncryptionKey != "" {
		if _, err := crypto.KeyFromBase64(c.SessionEncryptionKey); err != nil {
			return errors.New("SESSION_ENCRYPTION_KEY: " + err.Error())
		}
	}

	if c.HTTPTimeout < 0 || c.SyncOperationTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// SupabaseConfigured reports whether both the project URL and the anon key are set.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// PasswordResetRedirect is the URL reset emails send the user back to.
func (c *Config) PasswordResetRedirect() string {
	return c.SiteURL + "/auth/callback"
}
