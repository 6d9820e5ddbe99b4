package driver

import (
	"path/filepath"
	"testing"

	"cipher-canvas/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoClientOptions(t *testing.T) {
	t.Setenv("MONGO_USERNAME", "env-user")
	t.Setenv("MONGO_PASSWORD", "env-pass")

	opts, err := mongoClientOptions(config.MongoConfig{
		URL:                    "mongodb://localhost:27017",
		MaxPoolSize:            20,
		MinPoolSize:            2,
		ServerSelectionTimeout: 3,
	})
	require.NoError(t, err)

	require.NotNil(t, opts.Auth)
	assert.Equal(t, "env-user", opts.Auth.Username)
	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(20), *opts.MaxPoolSize)
	require.NotNil(t, opts.MinPoolSize)
	assert.Equal(t, uint64(2), *opts.MinPoolSize)
	require.NotNil(t, opts.AppName)
	assert.Equal(t, appName, *opts.AppName)
	assert.Nil(t, opts.TLSConfig)
}

func TestMongoClientOptions_ConfigCredentialsWin(t *testing.T) {
	t.Setenv("MONGO_USERNAME", "env-user")
	t.Setenv("MONGO_PASSWORD", "env-pass")

	opts, err := mongoClientOptions(config.MongoConfig{
		URL:      "mongodb://localhost:27017",
		Username: "file-user",
		Password: "file-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "file-user", opts.Auth.Username)
}

func TestMongoClientOptions_TLS(t *testing.T) {
	opts, err := mongoClientOptions(config.MongoConfig{
		URL:                   "mongodb://localhost:27017",
		TLSEnabled:            true,
		TLSInsecureSkipVerify: true,
	})
	require.NoError(t, err)
	require.NotNil(t, opts.TLSConfig)
	assert.True(t, opts.TLSConfig.InsecureSkipVerify)

	_, err = mongoClientOptions(config.MongoConfig{
		URL:        "mongodb://localhost:27017",
		TLSEnabled: true,
		TLSCAFile:  "/nonexistent/ca.pem",
	})
	assert.Error(t, err)
}

func TestInitPebble(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pebble")
	require.NoError(t, InitPebble(config.PebbleConfig{Path: path}))
	require.NotNil(t, GetPebbleDB())

	require.NoError(t, ClosePebble())
	assert.Nil(t, GetPebbleDB())
	assert.NoError(t, ClosePebble())
}

func TestInitMongo_RequiresDatabaseName(t *testing.T) {
	assert.Error(t, InitMongo(config.MongoConfig{URL: "mongodb://localhost:27017"}))
}
