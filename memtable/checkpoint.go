package memtable

import (
	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var checkpointBucket = []byte("checkpoints")

// CheckpointStore persists the opaque blobs agg.Instance.Save produces
// (and agg.Instance.Restore reads back), keyed by aggregation key, across process restarts — a
// concrete backing for spec.md §8's `save -> restore -> get == get`
// invariant that survives more than one process lifetime. Backed by
// github.com/boltdb/bolt, an embedded single-file KV store; this is the
// one piece of the module that needs its state to outlive the process,
// so it is the one place an on-disk store belongs.
type CheckpointStore struct {
	db *bolt.DB
}

// OpenCheckpointStore opens (creating if absent) a bolt-backed
// checkpoint file at path.
func OpenCheckpointStore(path string) (*CheckpointStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "memtable: open checkpoint store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(checkpointBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "memtable: init checkpoint bucket")
	}
	return &CheckpointStore{db: db}, nil
}

// Put stores blob under key, overwriting any previous value.
func (c *CheckpointStore) Put(key string, blob []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(checkpointBucket).Put([]byte(key), blob)
	})
}

// Get returns the blob stored under key, and whether one was found.
func (c *CheckpointStore) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(checkpointBucket).Get([]byte(key))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// Close releases the underlying file handle.
func (c *CheckpointStore) Close() error {
	return c.db.Close()
}
