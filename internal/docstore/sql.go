package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

var _ Store = (*SQLStore)(nil)

// DocNode is one child document of a collection.
type DocNode struct {
	Collection string         `gorm:"primaryKey;size:191"`
	Key        string         `gorm:"column:node_key;primaryKey;size:191"`
	Body       datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time
}

func (DocNode) TableName() string { return "doc_nodes" }

// DocSequence backs NextKey.
type DocSequence struct {
	Collection string `gorm:"primaryKey;size:191"`
	Value      int64  `gorm:"not null"`
}

func (DocSequence) TableName() string { return "doc_sequences" }

// SQLStore keeps one row per collection child. Postgres is used in
// production; sqlite serves local files and tests.
type SQLStore struct {
	db  *gorm.DB
	log *logger.Logger
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             1 * time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

func OpenPostgres(cfg PostgresConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return db, nil
}

const sqliteBusyTimeoutMS = 5000

// sqliteDSN makes file databases take the write lock at BEGIN and wait for
// it, so concurrent transactions queue instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "_txlock=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d&_txlock=immediate", path, sep, sqliteBusyTimeoutMS)
}

// OpenSQLite opens a sqlite database file; ":memory:" gives a private
// in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewSQLStore migrates the doc tables and returns the store.
func NewSQLStore(db *gorm.DB, log *logger.Logger) (*SQLStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := db.AutoMigrate(&DocNode{}, &DocSequence{}); err != nil {
		return nil, fmt.Errorf("docstore automigrate: %w", err)
	}
	return &SQLStore{db: db, log: log.With("store", "SQLStore")}, nil
}

const sqlTxAttempts = 3

// retryable reports whether a failed transaction may succeed when run
// again: postgres serialization failures, deadlocks, lock timeouts and
// unique violations, or a sqlite database that stayed busy past the timeout.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03", "23505":
			return true
		}
		return false
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func (s *SQLStore) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= sqlTxAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			return err
		}
		s.log.Debug("retrying sql transaction", "attempt", attempt, "error", err)
	}
	return err
}

func (s *SQLStore) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	key := segs[len(segs)-1]
	if len(segs) == 1 {
		var rows []DocNode
		if err := s.db.WithContext(ctx).Where("collection = ?", segs[0]).Find(&rows).Error; err != nil {
			return Snapshot{}, fmt.Errorf("sql get %s: %w", segs[0], err)
		}
		tree := make(map[string]any, len(rows))
		for _, row := range rows {
			v, err := decodeJSON(row.Body)
			if err != nil {
				s.log.Warn("undecodable sql document", "collection", row.Collection, "key", row.Key, "error", err)
				tree[row.Key] = string(row.Body)
				continue
			}
			if v != nil {
				tree[row.Key] = v
			}
		}
		if len(tree) == 0 {
			return NewSnapshot(key, nil), nil
		}
		return NewSnapshot(key, tree), nil
	}
	doc, err := readNode(s.db.WithContext(ctx), segs[0], segs[1])
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(key, lookup(doc, segs[2:])), nil
}

func readNode(tx *gorm.DB, collection, key string) (any, error) {
	var row DocNode
	err := tx.Where("collection = ? AND node_key = ?", collection, key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sql get %s/%s: %w", collection, key, err)
	}
	v, err := decodeJSON(row.Body)
	if err != nil {
		return string(row.Body), nil
	}
	return v, nil
}

func writeNode(tx *gorm.DB, collection, key string, v any) error {
	if v == nil {
		return tx.Where("collection = ? AND node_key = ?", collection, key).Delete(&DocNode{}).Error
	}
	body, err := encodeBody(v)
	if err != nil {
		return err
	}
	row := DocNode{Collection: collection, Key: key, Body: body, UpdatedAt: time.Now().UTC()}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "node_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&row).Error
}

func encodeBody(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode value: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func (s *SQLStore) Set(ctx context.Context, path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	switch len(segs) {
	case 1:
		var children map[string]any
		switch t := v.(type) {
		case nil:
		case map[string]any:
			children = t
		case []any:
			children = listToMap(t)
		default:
			return ErrNotObject
		}
		return s.transaction(ctx, func(tx *gorm.DB) error {
			if err := tx.Where("collection = ?", segs[0]).Delete(&DocNode{}).Error; err != nil {
				return err
			}
			for k, child := range children {
				if err := writeNode(tx, segs[0], k, child); err != nil {
					return err
				}
			}
			return nil
		})
	case 2:
		return writeNode(db, segs[0], segs[1], v)
	default:
		return s.transaction(ctx, func(tx *gorm.DB) error {
			doc, err := readNode(tx, segs[0], segs[1])
			if err != nil {
				return err
			}
			return writeNode(tx, segs[0], segs[1], setIn(doc, segs[2:], v))
		})
	}
}

func (s *SQLStore) Remove(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

// NextKey is only supported on collections.
func (s *SQLStore) NextKey(ctx context.Context, path string) (int64, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return 0, err
	}
	if len(segs) != 1 {
		return 0, ErrInvalidPath
	}
	var next int64
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		// make sure the row exists, then hold its lock until commit so
		// concurrent allocations serialize on it
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&DocSequence{Collection: segs[0]}).Error; err != nil {
			return err
		}
		var seq DocSequence
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ?", segs[0]).Take(&seq).Error; err != nil {
			return err
		}
		for {
			seq.Value++
			var n int64
			if err := tx.Model(&DocNode{}).
				Where("collection = ? AND node_key = ?", segs[0], strconv.FormatInt(seq.Value, 10)).
				Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				break
			}
		}
		next = seq.Value
		return tx.Model(&DocSequence{}).Where("collection = ?", segs[0]).Update("value", next).Error
	})
	if err != nil {
		return 0, fmt.Errorf("sql next key for %s: %w", segs[0], err)
	}
	return next, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
