// Package leveldb implements the ability to read and write blocks to a
// LevelDB database. Blocks are keyed by their big endian index so the
// natural key order is the chain order.
package leveldb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// blockPrefix is prepended to every block key.
var blockPrefix = []byte("blk:")

// LevelDB represents the serialization implementation for reading and
// storing blocks in LevelDB. This implements the database.Storage interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates the LevelDB database at the specified path.
func New(dbPath string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}

	return &LevelDB{db: db}, nil
}

// Close releases the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write stores the block under its index. The write is synced to disk and
// an existing block is never overwritten.
func (l *LevelDB) Write(ctx context.Context, block database.Block) error {
	key := blockKey(block.Index)

	exists, err := l.db.Has(key, nil)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("block %d already exists", block.Index)
	}

	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return l.db.Put(key, data, &opt.WriteOptions{Sync: true})
}

// GetBlock returns the block stored for the specified index.
func (l *LevelDB) GetBlock(ctx context.Context, index uint64) (database.Block, error) {
	data, err := l.db.Get(blockKey(index), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.Block{}, database.ErrBlockNotFound
		}
		return database.Block{}, err
	}

	return decode(data)
}

// LatestBlock returns the block with the highest index.
func (l *LevelDB) LatestBlock(ctx context.Context) (database.Block, error) {
	iter := l.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()

	if !iter.Last() {
		if err := iter.Error(); err != nil {
			return database.Block{}, err
		}
		return database.Block{}, database.ErrChainEmpty
	}

	return decode(iter.Value())
}

// ReadAll returns every block in index order.
func (l *LevelDB) ReadAll(ctx context.Context) ([]database.Block, error) {
	iter := l.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()

	var blocks []database.Block
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		block, err := decode(iter.Value())
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	return blocks, nil
}

// =============================================================================

// blockKey forms the key for the specified block index.
func blockKey(index uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], index)

	return key
}

// decode converts the stored value back into a block. The iterator reuses
// its buffers so the value is fully decoded before returning.
func decode(data []byte) (database.Block, error) {
	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, fmt.Errorf("decode block: %w", err)
	}

	return block, nil
}
