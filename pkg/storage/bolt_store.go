package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	itemBucket       = "items"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("item bucket missing")

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	itemTTL         time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(itemBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		itemTTL:         opts.ItemTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// GetItem returns the value stored under key. Expired items are deleted and reported missing.
func (b *boltStore) GetItem(key string) (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return "", false, err
	}

	var (
		value string
		found bool
		stale bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return errBucketMissing
		}

		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		expiry, v, ok := decodeItem(raw)
		if !ok || expired(expiry, now) {
			stale = true
			return nil
		}
		value, found = v, true
		return nil
	})
	if err != nil || !stale {
		return value, found, err
	}

	// Drop a stale or corrupt entry so it does not linger until the next cleanup.
	return "", false, b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return errBucketMissing
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if expiry, _, ok := decodeItem(raw); ok && !expired(expiry, now) {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

// SetItem stores value under key.
func (b *boltStore) SetItem(key, value string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(key), encodeItem(expiryFor(now, b.itemTTL), value))
	})
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (b *boltStore) RemoveItem(key string) error {
	if b == nil || b.db == nil {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Delete([]byte(key))
	})
}

// maybeCleanupExpired removes expired items on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil || b.itemTTL <= 0 {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return errBucketMissing
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeItem(v)
			if !ok || expired(expiry, now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// encodeItem prefixes value with its big-endian unix expiry; zero means no expiry.
func encodeItem(expiry time.Time, value string) []byte {
	buf := make([]byte, expiryValueBytes+len(value))
	if !expiry.IsZero() {
		binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	}
	copy(buf[expiryValueBytes:], value)
	return buf
}

// decodeItem splits a stored item into its expiry and value.
func decodeItem(raw []byte) (time.Time, string, bool) {
	if len(raw) < expiryValueBytes {
		return time.Time{}, "", false
	}
	value := string(raw[expiryValueBytes:])
	unix := int64(binary.BigEndian.Uint64(raw[:expiryValueBytes]))
	switch {
	case unix == 0:
		return time.Time{}, value, true
	case unix < 0:
		return time.Time{}, "", false
	default:
		return time.Unix(unix, 0), value, true
	}
}
