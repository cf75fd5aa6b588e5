// Package options resolves named options against the request's connection.
package options

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// Factory implements domain.OptionsFactory.
type Factory struct{}

func NewFactory() Factory {
	return Factory{}
}

// New returns a per-request store. A nil conn yields a store that only ever
// returns defaults.
func (Factory) New(conn domain.Connection) domain.Options {
	s := &Store{memo: make(map[string]lookup)}
	if conn != nil {
		s.repo = conn.Options()
	}
	return s
}

type lookup struct {
	value string
	found bool
}

// Store memoizes stored lookups so a key resolves to the same value for the
// whole request. The default is applied per call and is not memoized.
type Store struct {
	repo domain.OptionRepository

	mu   sync.Mutex
	memo map[string]lookup
}

func (s *Store) Get(ctx context.Context, key, def string) (string, error) {
	if s.repo == nil {
		return def, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.memo[key]
	if !ok {
		value, err := s.repo.Get(ctx, key)
		switch {
		case err == nil:
			l = lookup{value: value, found: true}
		case errors.Is(err, domain.ErrOptionNotFound):
			l = lookup{}
		default:
			return "", fmt.Errorf("get option %s: %w", key, err)
		}
		s.memo[key] = l
	}

	if !l.found {
		return def, nil
	}
	return l.value, nil
}

// Set stores value and updates this request's view of the key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.repo == nil {
		return errors.New("options: no connection")
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set option %s: %w", key, err)
	}

	s.mu.Lock()
	s.memo[key] = lookup{value: value, found: true}
	s.mu.Unlock()
	return nil
}
