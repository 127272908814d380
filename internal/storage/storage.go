// Package storage persists user preferences and recently viewed tokens in
// a local LevelDB database.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/retry"
	"github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Keys.
const (
	PreferencesKey  = "meme-factory-preferences"
	RecentTokensKey = "meme-factory-recent-tokens"
)

const openRetryDelay = 200 * time.Millisecond

// Store is a small JSON-valued key-value store.
type Store struct {
	db        *leveldb.DB
	log       logrus.FieldLogger
	recentMax int

	mu sync.Mutex // serialises read-modify-write sequences
}

// Option configures a Store.
type Option func(*Store)

// WithRecentMax caps the recent tokens list.
func WithRecentMax(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentMax = n
		}
	}
}

func newStore(db *leveldb.DB, log logrus.FieldLogger, opts []Option) *Store {
	s := &Store{db: db, log: log.WithField("module", "storage"), recentMax: config.DefaultRecentTokensMax}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open opens or creates the database at path. Open failures such as a lock
// held by another process are retried a few times; a corrupted database is
// recovered in place.
func Open(ctx context.Context, path string, log logrus.FieldLogger, opts ...Option) (*Store, error) {
	var db *leveldb.DB
	err := retry.DoNotify(ctx, retry.DefaultAttempts, openRetryDelay, func() error {
		var err error
		db, err = leveldb.OpenFile(path, nil)
		if lerrors.IsCorrupted(err) {
			log.WithError(err).Warn("store corrupted, recovering")
			db, err = leveldb.RecoverFile(path, nil)
			if err != nil {
				return retry.Permanent(err)
			}
		}
		return err
	}, func(err error, wait time.Duration) {
		log.WithError(err).WithField("retry_in", wait).Debug("store busy")
	})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	return newStore(db, log, opts), nil
}

// OpenMemory returns a store that lives only as long as the process.
func OpenMemory(log logrus.FieldLogger, opts ...Option) (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return newStore(db, log, opts), nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// getJSON decodes key into v. It reports false when the key is missing or
// holds a value that cannot be decoded.
func (s *Store) getJSON(key string, v any) (bool, error) {
	data, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("ignoring unreadable stored value")
		return false, nil
	}
	return true, nil
}

func (s *Store) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.db.Put([]byte(key), data, nil); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
