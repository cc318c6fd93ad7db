// Package disk implements the ability to read and write blocks to disk
// with each block stored in its own JSON file.
package disk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
)

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// database.Storage interface.
type Disk struct {
	mu     sync.RWMutex
	dbPath string
}

// tempPattern names the scratch files a block is written to before it is
// linked into place. They never match a block file name.
const tempPattern = ".block-*.tmp"

// New constructs a Disk value for use. Scratch files left behind by a write
// that never completed are removed.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	stray, err := filepath.Glob(filepath.Join(dbPath, tempPattern))
	if err != nil {
		return nil, err
	}
	for _, name := range stray {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove scratch file: %w", err)
		}
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified database block and stores it on disk in a
// file labeled with the block index. The block is written and synced to a
// scratch file first and then linked to its final name, so a failed write
// never leaves a partial block behind. A block is never overwritten.
func (d *Disk) Write(ctx context.Context, block database.Block) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(d.dbPath, tempPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	// Link fails when the block file already exists.
	if err := os.Link(tmp, d.getPath(block.Index)); err != nil {
		return err
	}

	return syncDir(d.dbPath)
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by index.
func (d *Disk) GetBlock(ctx context.Context, index uint64) (database.Block, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.readBlock(index)
}

// LatestBlock walks the chain on disk and returns the last block.
func (d *Disk) LatestBlock(ctx context.Context) (database.Block, error) {
	blocks, err := d.ReadAll(ctx)
	if err != nil {
		return database.Block{}, err
	}

	if len(blocks) == 0 {
		return database.Block{}, database.ErrChainEmpty
	}

	return blocks[len(blocks)-1], nil
}

// ReadAll reads every block starting with block 1 until a file is missing.
func (d *Disk) ReadAll(ctx context.Context) ([]database.Block, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var blocks []database.Block
	for index := uint64(1); ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		block, err := d.readBlock(index)
		if err != nil {
			if errors.Is(err, database.ErrBlockNotFound) {
				return blocks, nil
			}
			return nil, err
		}

		blocks = append(blocks, block)
	}
}

// readBlock decodes the file for the specified block.
func (d *Disk) readBlock(index uint64) (database.Block, error) {
	f, err := os.OpenFile(d.getPath(index), os.O_RDONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.Block{}, database.ErrBlockNotFound
		}
		return database.Block{}, err
	}
	defer f.Close()

	var block database.Block
	if err := json.NewDecoder(f).Decode(&block); err != nil {
		return database.Block{}, fmt.Errorf("decode block %d: %w", index, err)
	}

	return block, nil
}

// syncDir flushes the directory entry of a newly linked block.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Sync()
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(index uint64) string {
	name := strconv.FormatUint(index, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}
