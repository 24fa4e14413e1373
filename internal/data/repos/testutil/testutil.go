package testutil

import (
	"errors"
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// Store returns a fresh in-memory document store.
func Store(tb testing.TB) docstore.Store {
	tb.Helper()
	s := docstore.NewMemoryStore(Logger(tb))
	tb.Cleanup(func() { _ = s.Close() })
	return s
}

// PostgresStore returns a SQL-backed store on TEST_POSTGRES_DSN, emptied
// again when the test ends. Skips when the DSN is not set.
func PostgresStore(tb testing.TB) docstore.Store {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}
		db, dbErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
	})

	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}

	s, err := docstore.NewSQLStore(db, Logger(tb))
	if err != nil {
		tb.Fatalf("NewSQLStore: %v", err)
	}
	truncate := func() {
		_ = db.Exec("DELETE FROM doc_nodes").Error
		_ = db.Exec("DELETE FROM doc_sequences").Error
	}
	truncate()
	tb.Cleanup(truncate)
	return s
}
