// Package store persists the command history in a bolt database file.
package store

import (
	"time"

	bolt "go.etcd.io/bbolt"

	"src.vsh.sh/pkg/logutil"
	"src.vsh.sh/pkg/store/storedefs"
)

var logger = logutil.GetLogger("[store] ")

const bucketHistory = "history"

// DBStore is a Store backed by a database file.
type DBStore interface {
	storedefs.Store
	Close() error
}

type dbStore struct {
	db *bolt.DB
}

// NewStore opens the database file, creating the history bucket on
// first use. The file is locked; a second shell opening the same
// database fails after a short timeout instead of hanging.
func NewStore(dbname string) (DBStore, error) {
	db, err := bolt.Open(dbname, 0o644, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, err
	}
	logger.Println("opened database", dbname)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketHistory))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &dbStore{db}, nil
}

func (s *dbStore) Close() error {
	return s.db.Close()
}
