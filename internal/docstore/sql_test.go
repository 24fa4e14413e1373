package docstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&pgconn.PgError{Code: "40001"}, true},
		{fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{&pgconn.PgError{Code: "23505"}, true},
		{&pgconn.PgError{Code: "23503"}, false},
		{sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{fmt.Errorf("begin: %w", sqlite3.Error{Code: sqlite3.ErrLocked}), true},
		{sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{errors.New("connection refused"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Fatalf("retryable(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
}

func TestSQLStoreNextKeyPersistsSequence(t *testing.T) {
	s := newTestSQLStore(t).(*SQLStore)
	ctx := t.Context()
	if _, err := s.NextKey(ctx, "recipes"); err != nil {
		t.Fatalf("NextKey: %v", err)
	}
	var seq DocSequence
	if err := s.db.Where("collection = ?", "recipes").Take(&seq).Error; err != nil {
		t.Fatalf("read sequence: %v", err)
	}
	if seq.Value != 1 {
		t.Fatalf("sequence: want=1 got=%d", seq.Value)
	}
	if _, err := s.NextKey(ctx, "recipes/1"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("NextKey on child: want ErrInvalidPath got %v", err)
	}
}

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		":memory:":                ":memory:",
		"recipebook.db":           "recipebook.db?_busy_timeout=5000&_txlock=immediate",
		"file:rb.db?cache=shared": "file:rb.db?cache=shared&_busy_timeout=5000&_txlock=immediate",
		"rb.db?_txlock=deferred":  "rb.db?_txlock=deferred",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Fatalf("sqliteDSN(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestSQLStoreConcurrentNextKeyIsUnique(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s, err := NewSQLStore(db, mustTestLogger(t))
	if err != nil {
		t.Fatalf("NewSQLStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	if err := s.Set(ctx, "recipes/3", map[string]any{"name": "taken"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]int)
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.NextKey(ctx, "recipes")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			seen[id]++
		}()
	}
	wg.Wait()

	if len(errs) != 0 {
		t.Fatalf("NextKey errors: %v", errs)
	}
	if len(seen) != n {
		t.Fatalf("distinct ids: want=%d got=%d (%v)", n, len(seen), seen)
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("id %d handed out %d times", id, count)
		}
		if id == 3 || id < 1 || id > n+1 {
			t.Fatalf("unexpected id %d", id)
		}
	}
}
