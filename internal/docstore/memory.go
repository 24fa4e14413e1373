package docstore

import (
	"context"
	"sync"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the whole tree in process. Safe for concurrent access.
type MemoryStore struct {
	mu       sync.RWMutex
	root     any
	reserved map[string]int64
	closed   bool
	log      *logger.Logger
}

func NewMemoryStore(log *logger.Logger) *MemoryStore {
	if log == nil {
		log = logger.Nop()
	}
	return &MemoryStore{
		reserved: make(map[string]int64),
		log:      log.With("store", "MemoryStore"),
	}
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Snapshot{}, ErrClosed
	}
	return NewSnapshot(segs[len(segs)-1], deepCopy(lookup(s.root, segs))), nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.root = setIn(s.root, segs, v)
	s.log.Debug("node written", "path", JoinPath(segs...), "removed", v == nil)
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

func (s *MemoryStore) NextKey(ctx context.Context, path string) (int64, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	key := JoinPath(segs...)
	next := maxIntKey(lookup(s.root, segs))
	if r := s.reserved[key]; r > next {
		next = r
	}
	next++
	s.reserved[key] = next
	return next, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
