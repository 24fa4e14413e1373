package app

import (
	"fmt"
	"strings"
)

type StoreBackend string

const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendSQLite   StoreBackend = "sqlite"
)

type StoreConfigErrorCode string

const (
	StoreConfigErrorUnknownBackend  StoreConfigErrorCode = "unknown_store_backend"
	StoreConfigErrorMissingRedis    StoreConfigErrorCode = "missing_redis_addr"
	StoreConfigErrorMissingPostgres StoreConfigErrorCode = "missing_postgres_host"
	StoreConfigErrorMissingSQLite   StoreConfigErrorCode = "missing_sqlite_path"
	StoreConfigErrorInvalidRoot     StoreConfigErrorCode = "invalid_store_root"
)

type StoreConfigError struct {
	Code    StoreConfigErrorCode
	Backend StoreBackend
	Cause   error
}

func (e *StoreConfigError) Error() string {
	if e == nil {
		return "invalid store config"
	}
	return fmt.Sprintf("invalid store config (code=%s backend=%q): %v", e.Code, e.Backend, e.Cause)
}

func (e *StoreConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveStoreBackend checks that the selected backend has what it needs
// to connect. An empty selection means memory.
func resolveStoreBackend(cfg Config) (StoreBackend, error) {
	backend := StoreBackend(strings.ToLower(strings.TrimSpace(string(cfg.Store.Backend))))
	if backend == "" {
		backend = StoreBackendMemory
	}
	if root := strings.Trim(cfg.Store.Root, "/ "); root == "" || strings.Contains(root, "/") {
		return "", &StoreConfigError{
			Code:    StoreConfigErrorInvalidRoot,
			Backend: backend,
			Cause:   fmt.Errorf("store root %q must be a single path segment", cfg.Store.Root),
		}
	}
	switch backend {
	case StoreBackendMemory:
		return backend, nil
	case StoreBackendRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return "", &StoreConfigError{
				Code:    StoreConfigErrorMissingRedis,
				Backend: backend,
				Cause:   fmt.Errorf("REDIS_ADDR is required"),
			}
		}
		return backend, nil
	case StoreBackendPostgres:
		if strings.TrimSpace(cfg.Postgres.Host) == "" {
			return "", &StoreConfigError{
				Code:    StoreConfigErrorMissingPostgres,
				Backend: backend,
				Cause:   fmt.Errorf("POSTGRES_HOST is required"),
			}
		}
		return backend, nil
	case StoreBackendSQLite:
		if strings.TrimSpace(cfg.Store.SQLitePath) == "" {
			return "", &StoreConfigError{
				Code:    StoreConfigErrorMissingSQLite,
				Backend: backend,
				Cause:   fmt.Errorf("SQLITE_PATH is required"),
			}
		}
		return backend, nil
	default:
		return "", &StoreConfigError{
			Code:    StoreConfigErrorUnknownBackend,
			Backend: backend,
			Cause:   fmt.Errorf("unsupported store backend %q", backend),
		}
	}
}
