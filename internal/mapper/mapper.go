package mapper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/minorm/internal/store"
)

// Store is the record store a Mapper drives. *store.Store implements it.
type Store interface {
	Open(ctx context.Context) error
	Close() error
	State() store.State
	Execute(ctx context.Context, text string) (*store.Cursor, error)
	Run(ctx context.Context, st store.Statement) error
	Scan(ctx context.Context, text string, fn func(columns []string, values []any) error) error
	TableExists(ctx context.Context, name string) (bool, error)
}

// Mapper runs record operations against a Store.
//
// Every operation leases the store: a closed store is opened for the duration
// of the operation and closed again on every exit path, while a store the
// caller opened is left open. Concurrent operations share one lease, so the
// store is closed only after the last of them returns.
type Mapper struct {
	store  Store
	logger *slog.Logger
	keys   KeyGenerator

	mu     sync.Mutex
	leases int
	scoped bool
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger for operation logs. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Mapper) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithKeyGenerator fills empty Text keys on Insert. Without one, empty keys
// are inserted as they are.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(m *Mapper) {
		m.keys = g
	}
}

// New creates a mapper over s. s may be open or closed.
func New(s Store, opts ...Option) *Mapper {
	m := &Mapper{
		store:  s,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open opens a store for cfg and returns a mapper that keeps it open until
// Close. Use New with a closed store for per-operation connections instead.
func Open(ctx context.Context, cfg store.Config, opts ...Option) (*Mapper, error) {
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(s, opts...), nil
}

// Store returns the underlying store.
func (m *Mapper) Store() Store {
	return m.store
}

// Close closes the underlying store.
func (m *Mapper) Close() error {
	return m.store.Close()
}

// acquire leases the store for one operation. The returned release must be
// called exactly once.
func (m *Mapper) acquire(ctx context.Context) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.leases == 0 && m.store.State() == store.StateClosed {
		if err := m.store.Open(ctx); err != nil {
			return nil, err
		}
		m.scoped = true
	}
	m.leases++
	return m.release, nil
}

func (m *Mapper) release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.leases--
	if m.leases > 0 || !m.scoped {
		return
	}
	m.scoped = false
	if err := m.store.Close(); err != nil {
		m.logger.Warn("closing scoped store failed", "error", err)
	}
}
