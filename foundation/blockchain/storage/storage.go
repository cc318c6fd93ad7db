// Package storage selects and opens one of the supported block storage
// implementations.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/disk"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/leveldb"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/memory"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/mongo"
)

// Set of supported storage kinds.
const (
	KindMemory  = "memory"
	KindDisk    = "disk"
	KindLevelDB = "leveldb"
	KindMongo   = "mongo"
)

// Config represents the settings needed to open a storage implementation.
// Path is used by the disk and leveldb kinds, the Mongo fields by mongo.
type Config struct {
	Kind            string
	Path            string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	MongoTimeout    time.Duration
}

// Open constructs the storage implementation named by the config.
func Open(ctx context.Context, cfg Config) (database.Storage, error) {
	switch cfg.Kind {
	case KindMemory:
		strg, err := memory.New()
		if err != nil {
			return nil, err
		}
		return strg, nil

	case KindDisk:
		strg, err := disk.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return strg, nil

	case KindLevelDB:
		strg, err := leveldb.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return strg, nil

	case KindMongo:
		strg, err := mongo.New(ctx, mongo.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
			Timeout:    cfg.MongoTimeout,
		})
		if err != nil {
			return nil, err
		}
		return strg, nil
	}

	return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
}
