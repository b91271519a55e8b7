package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRunMigrations_UnknownSource(t *testing.T) {
	err := RunMigrations("file:///nonexistent/migrations", "postgres://u:p@localhost:1/none?sslmode=disable", MigrateUp, 0, zap.NewNop())
	assert.Error(t, err)
}
