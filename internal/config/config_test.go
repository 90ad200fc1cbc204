package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every bound key; viper treats empty variables as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range boundKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SITE_URL", "http://localhost:5173/")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, StorageBackendSupabase, cfg.StorageBackend)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.SupabaseConfigured())
	assert.Equal(t, "http://localhost:5173/auth/callback", cfg.PasswordResetRedirect())
}

func TestLoadSupabaseSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("SUPABASE_URL", " https://abc.supabase.co/ ")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("SYNC_OPERATION_TIMEOUT", "2m")
	t.Setenv("HTTP_TIMEOUT", "5s")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
	assert.True(t, cfg.SupabaseConfigured())
	assert.Equal(t, StorageBackendMemory, cfg.StorageBackend)
	assert.Equal(t, 2*time.Minute, cfg.SyncOperationTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{StorageBackend: StorageBackendSupabase, SessionStore: SessionStoreMemory}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.StorageBackend = "mysql" },
			wantErr: "STORAGE_BACKEND",
		},
		{
			name:    "firestore without project",
			mutate:  func(c *Config) { c.StorageBackend = StorageBackendFirestore },
			wantErr: "FIREBASE_PROJECT_ID",
		},
		{
			name: "firestore with project",
			mutate: func(c *Config) {
				c.StorageBackend = StorageBackendFirestore
				c.FirebaseProjectID = "demo"
			},
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.SessionStore = SessionStoreRedis },
			wantErr: "REDIS_ADDR",
		},
		{
			name:    "unknown session store",
			mutate:  func(c *Config) { c.SessionStore = "disk" },
			wantErr: "SESSION_STORE",
		},
		{
			name:    "short session key",
			mutate:  func(c *Config) { c.SessionEncryptionKey = "c2hvcnQ=" },
			wantErr: "SESSION_ENCRYPTION_KEY",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.SyncOperationTimeout = -time.Second },
			wantErr: "negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
