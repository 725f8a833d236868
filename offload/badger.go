package offload

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

// blobPrefix namespaces blob entries so the database can be shared.
const blobPrefix = "offload/blob/"

// BadgerStore is a Store backed by a Badger database. Entries are sealed the
// same way as in MemoryStore. A store from OpenBadgerStore owns its database
// and Close releases it; with NewBadgerStore the caller keeps ownership and
// should close the database itself rather than calling Close.
type BadgerStore struct {
	db *badger.DB
	sealer
}

// NewBadgerStore wraps an open Badger database.
func NewBadgerStore(db *badger.DB, opts ...StoreOption) *BadgerStore {
	return &BadgerStore{db: db, sealer: newSealer(opts)}
}

// OpenBadgerStore opens (or creates) a Badger database in dir. An empty dir
// opens an in-memory database.
func OpenBadgerStore(dir string, opts ...StoreOption) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "error opening badger database")
	}
	return NewBadgerStore(db, opts...), nil
}

// Close closes the underlying database. Only call it on stores from
// OpenBadgerStore.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Put stores data under id, replacing any previous entry.
func (s *BadgerStore) Put(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	entry, err := s.seal(id, data)
	if err == nil {
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(blobKey(id), entry)
		})
		err = errors.Wrap(err, "error in badger transaction (update)")
	}

	emitStored(ctx, id, len(data), len(entry), time.Since(start), err)
	return err
}

// Get returns the data stored under id.
func (s *BadgerStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var entry []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(id))
		if err != nil {
			return err
		}
		entry, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		err = errors.Wrap(ErrNotFound, id)
		emitFetched(ctx, id, 0, time.Since(start), err)
		return nil, err
	}
	if err != nil {
		err = errors.Wrap(err, "error in badger transaction (view)")
		emitFetched(ctx, id, 0, time.Since(start), err)
		return nil, err
	}

	data, err := s.open(id, entry)
	emitFetched(ctx, id, len(data), time.Since(start), err)
	return data, err
}

// Delete removes the entry for id. Deleting a missing entry is a no-op.
func (s *BadgerStore) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(blobKey(id))
	})
	return errors.Wrap(err, "error deleting blob")
}

func blobKey(id string) []byte {
	return []byte(blobPrefix + id)
}
