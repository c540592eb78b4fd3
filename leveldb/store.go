// Package leveldb provides a concrete implementation of the pack.Store
// interface backed by goleveldb. It handles the specifics of opening,
// iterating, batch-writing, and compacting an on-disk pack database.
package leveldb

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-packs/core/keys"
	"github.com/asaidimu/go-packs/core/pack"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"
)

// Store is a goleveldb-backed pack store. Keys are stored as UTF-8 composite
// key strings, which makes LevelDB's byte order the lexicographic key order
// the pipelines rely on. Values are opaque JSON document bytes.
type Store struct {
	db     *leveldb.DB
	logger *zap.Logger
}

// Ensure Store implements the pack.Store interface.
var _ pack.Store = (*Store)(nil)

// Open opens (creating if necessary) the pack database at path. The store is
// meant to live for a single compile or extract run; close it when the run
// ends.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open pack database at %s: %w", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Get returns the value stored under key, or pack.ErrNotFound.
func (s *Store) Get(ctx context.Context, key keys.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", pack.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Iterate calls fn for every key/value pair in ascending key order.
func (s *Store) Iterate(ctx context.Context, fn func(key keys.Key, value []byte) error) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		// The iterator reuses its buffers between steps; hand out copies.
		key := keys.Key(iter.Key())
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return iter.Error()
}

// FirstKey returns the lexicographically first key in the store.
func (s *Store) FirstKey(ctx context.Context) (keys.Key, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	if !iter.First() {
		return "", false, iter.Error()
	}
	return keys.Key(iter.Key()), true, nil
}

// LastKey returns the lexicographically last key in the store.
func (s *Store) LastKey(ctx context.Context) (keys.Key, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	if !iter.Last() {
		return "", false, iter.Error()
	}
	return keys.Key(iter.Key()), true, nil
}

// WriteBatch applies all puts and deletes atomically.
func (s *Store) WriteBatch(ctx context.Context, puts []pack.Put, deletes []keys.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, put := range puts {
		batch.Put([]byte(put.Key), put.Value)
	}
	for _, key := range deletes {
		batch.Delete([]byte(key))
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	s.logger.Debug("wrote batch",
		zap.Int("puts", len(puts)),
		zap.Int("deletes", len(deletes)),
	)
	return nil
}

// CompactRange compacts the span from first to last inclusive. LevelDB's
// range limit is exclusive, so the limit is extended one byte past last.
func (s *Store) CompactRange(ctx context.Context, first, last keys.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	limit := append([]byte(last), 0x00)
	if err := s.db.CompactRange(util.Range{Start: []byte(first), Limit: limit}); err != nil {
		return fmt.Errorf("failed to compact range [%s, %s]: %w", first, last, err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
