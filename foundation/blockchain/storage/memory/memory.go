// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs an Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified database block and stores it in memory.
func (m *Memory) Write(ctx context.Context, block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := uint64(len(m.blocks))
	if l+1 != block.Index {
		return fmt.Errorf("block is out of order, got %d, exp %d", block.Index, l+1)
	}

	m.blocks = append(m.blocks, block)

	return nil
}

// GetBlock searches the blockchain to locate and return the contents of
// the specified block by index.
func (m *Memory) GetBlock(ctx context.Context, index uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l := uint64(len(m.blocks))
	if index == 0 || index > l {
		return database.Block{}, database.ErrBlockNotFound
	}

	return m.blocks[index-1], nil
}

// LatestBlock returns the last block written.
func (m *Memory) LatestBlock(ctx context.Context) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.blocks) == 0 {
		return database.Block{}, database.ErrChainEmpty
	}

	return m.blocks[len(m.blocks)-1], nil
}

// ReadAll returns a copy of the blocks in index order.
func (m *Memory) ReadAll(ctx context.Context) ([]database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blocks := make([]database.Block, len(m.blocks))
	copy(blocks, m.blocks)

	return blocks, nil
}

// Reset will clear out the blockchain in memory.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = []database.Block{}
	return nil
}
