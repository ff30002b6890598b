//go:build integration

// Package integration runs the persistence layer against a real PostgreSQL
// started with testcontainers.
package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/migration"
)

const migrationsDir = "../../migrations"

// pgDSN points at the migrated container for the lifetime of the package
var pgDSN string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stoflow_test"),
		tcpostgres.WithUsername("stoflow"),
		tcpostgres.WithPassword("stoflow"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		os.Exit(1)
	}

	code := 1
	pgDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		err = migration.Run(pgDSN, migrationsDir, zap.NewNop())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "prepare database: %v\n", err)
	} else {
		code = m.Run()
	}

	_ = container.Terminate(context.Background())
	os.Exit(code)
}

// openDB connects to the container with the same gorm settings as the server
// and empties the job tables
func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormpostgres.Open(pgDSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// advisory locks pin a connection each
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("TRUNCATE marketplace_jobs, batch_jobs").Error)
	return db
}
