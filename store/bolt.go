package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"webdesk/desktop"
)

var (
	fileSystemBucket = []byte("fileSystem")
	settingsBucket   = []byte("settings")
	snapshotKey      = []byte("fs")
)

// BoltStore keeps the snapshot as a single record in a bbolt file.
type BoltStore struct {
	db *bolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{fileSystemBucket, settingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) LoadSnapshot(ctx context.Context) (*desktop.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var root *desktop.Entity
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(fileSystemBucket).Get(snapshotKey)
		if data == nil {
			return nil
		}
		// data is only valid inside the transaction.
		var err error
		root, err = Decode(data)
		return err
	})
	return root, err
}

func (s *BoltStore) SaveSnapshot(ctx context.Context, root *desktop.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(root)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(fileSystemBucket).Put(snapshotKey, data)
	})
}

func (s *BoltStore) Settings(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored := Settings{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).ForEach(func(k, v []byte) error {
			stored[string(k)] = append(json.RawMessage(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return withDefaults(stored), nil
}

func (s *BoltStore) PutSetting(ctx context.Context, key string, value json.RawMessage) error {
	if err := checkSetting(key, value); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Put([]byte(key), value)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
