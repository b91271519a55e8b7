package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FARES_STORE", "")
	t.Setenv("FARES_TIMEZONE", "")

	cfg, err := Load("fares")
	require.NoError(t, err)

	assert.Equal(t, "fares", cfg.Server.ServiceName)
	assert.Equal(t, StorePostgres, cfg.Fares.Store)
	assert.Equal(t, "Africa/Kampala", cfg.Fares.Timezone)
	assert.Equal(t, time.Minute, cfg.Fares.ConfigCacheTTL())
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout())
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadStoreSelection(t *testing.T) {
	tests := []struct {
		name      string
		store     string
		projectID string
		wantErr   bool
	}{
		{name: "memory", store: "memory"},
		{name: "upper case is normalised", store: "MEMORY"},
		{name: "firestore with project", store: "firestore", projectID: "console-prod"},
		{name: "firestore without project", store: "firestore", wantErr: true},
		{name: "unknown backend", store: "mongo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FARES_STORE", tt.store)
			t.Setenv("FIREBASE_PROJECT_ID", tt.projectID)

			_, err := Load("fares")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("FARES_STORE", "memory")
	t.Setenv("FARES_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load("fares")
	assert.Error(t, err)
}

func TestLoadNonPositiveTTLFallsBack(t *testing.T) {
	t.Setenv("FARES_STORE", "memory")
	t.Setenv("FARE_CONFIG_CACHE_TTL_SECONDS", "-5")

	cfg, err := Load("fares")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Fares.ConfigCacheTTL())
}

func TestAllowedOrigins(t *testing.T) {
	c := ServerConfig{CORSOrigins: "https://admin.example.com, http://localhost:3000,,"}
	assert.Equal(t, []string{"https://admin.example.com", "http://localhost:3000"}, c.AllowedOrigins())
}

func TestDatabaseURL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "delivery", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/delivery?sslmode=disable", c.URL())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=delivery sslmode=disable", c.DSN())
}
