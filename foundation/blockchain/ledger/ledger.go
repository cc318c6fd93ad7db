// Package ledger is the core API for the maintenance chain and implements
// the rules for creating, appending and reading blocks.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
	"github.com/aeroledger/aeroledger/foundation/blockchain/genesis"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the ledger.
type Config struct {
	Storage     database.Storage
	Genesis     genesis.Genesis
	Difficulty  uint          // Overrides the genesis difficulty when not zero.
	MineTimeout time.Duration // Bounds mining an appended block when not zero.
	EvHandler   EventHandler
}

// Ledger manages the maintenance chain. Appends are serialized so index and
// parent hash assignment always follow call order. Chain state is read from
// storage on every call and never cached.
type Ledger struct {
	mu sync.Mutex

	storage     database.Storage
	genesis     genesis.Genesis
	difficulty  uint
	mineTimeout time.Duration
	evHandler   EventHandler
	now         func() time.Time
}

// New constructs a ledger for the specified storage.
func New(cfg Config) (*Ledger, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	difficulty := uint(cfg.Genesis.Difficulty)
	if cfg.Difficulty != 0 {
		difficulty = cfg.Difficulty
	}

	if err := database.ValidateDifficulty(difficulty); err != nil {
		return nil, err
	}

	l := Ledger{
		storage:     cfg.Storage,
		genesis:     cfg.Genesis,
		difficulty:  difficulty,
		mineTimeout: cfg.MineTimeout,
		evHandler:   ev,
		now:         time.Now,
	}

	return &l, nil
}

// Difficulty returns the number of leading zeros every block must have.
func (l *Ledger) Difficulty() uint {
	return l.difficulty
}

// Shutdown closes the underlying storage.
func (l *Ledger) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.storage.Close()
}

// =============================================================================

// CreateGenesis mines and writes the genesis block when the chain is empty.
// When the chain already has blocks nothing is written and the first block
// is returned.
func (l *Ledger) CreateGenesis(ctx context.Context) (database.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evHandler("ledger: CreateGenesis: started")
	defer l.evHandler("ledger: CreateGenesis: completed")

	_, err := l.storage.LatestBlock(ctx)
	switch {
	case err == nil:
		l.evHandler("ledger: CreateGenesis: chain exists: skipping")

		block, err := l.storage.GetBlock(ctx, 1)
		if err != nil {
			return database.Block{}, database.NewStoreError("get block", err)
		}
		return block, nil

	case !errors.Is(err, database.ErrChainEmpty):
		return database.Block{}, database.NewStoreError("latest block", err)
	}

	now := l.genesis.Date
	if now.IsZero() {
		now = l.now()
	}

	return l.mineAndWrite(ctx, 0, nil, database.GenesisRecord(), now)
}

// AppendBlock mines a new block for the maintenance record and writes it to
// storage as the next block in the chain. The record is expected to have
// been validated by the caller. The configured mine timeout bounds only the
// proof of work, the write runs under ctx alone.
func (l *Ledger) AppendBlock(ctx context.Context, record database.MaintenanceRecord) (database.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evHandler("ledger: AppendBlock: started: rec[%s]", record)
	defer l.evHandler("ledger: AppendBlock: completed")

	var prevBlock *database.Block

	latest, err := l.storage.LatestBlock(ctx)
	switch {
	case err == nil:
		prevBlock = &latest

	case !errors.Is(err, database.ErrChainEmpty):
		return database.Block{}, database.NewStoreError("latest block", err)
	}

	return l.mineAndWrite(ctx, l.mineTimeout, prevBlock, record, l.now())
}

// ListBlocks returns every block in the chain ordered by index.
func (l *Ledger) ListBlocks(ctx context.Context) ([]database.Block, error) {
	blocks, err := l.storage.ReadAll(ctx)
	if err != nil {
		return nil, database.NewStoreError("read all", err)
	}

	return blocks, nil
}

// LatestBlock returns the current tail of the chain.
func (l *Ledger) LatestBlock(ctx context.Context) (database.Block, error) {
	block, err := l.storage.LatestBlock(ctx)
	if err != nil {
		if errors.Is(err, database.ErrChainEmpty) {
			return database.Block{}, err
		}
		return database.Block{}, database.NewStoreError("latest block", err)
	}

	return block, nil
}

// QueryBlock returns the block at the specified index.
func (l *Ledger) QueryBlock(ctx context.Context, index uint64) (database.Block, error) {
	block, err := l.storage.GetBlock(ctx, index)
	if err != nil {
		if errors.Is(err, database.ErrBlockNotFound) {
			return database.Block{}, err
		}
		return database.Block{}, database.NewStoreError("get block", err)
	}

	return block, nil
}

// ValidateChain walks the entire chain validating each block against its
// parent. The number of valid blocks is returned with the first failure.
func (l *Ledger) ValidateChain(ctx context.Context) (int, error) {
	blocks, err := l.ListBlocks(ctx)
	if err != nil {
		return 0, err
	}

	var prevBlock *database.Block
	for i := range blocks {
		if err := blocks[i].ValidateBlock(prevBlock, l.difficulty, l.evHandler); err != nil {
			return i, fmt.Errorf("block %d: %w", blocks[i].Index, err)
		}
		prevBlock = &blocks[i]
	}

	return len(blocks), nil
}

// =============================================================================

// mineAndWrite performs the proof of work for the next block and writes it
// to storage. Nothing is written if mining is aborted. A non-zero timeout
// bounds the mining but not the write.
func (l *Ledger) mineAndWrite(ctx context.Context, timeout time.Duration, prevBlock *database.Block, record database.MaintenanceRecord, now time.Time) (database.Block, error) {
	l.evHandler("ledger: mineAndWrite: MINING: perform POW")

	mineCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		mineCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	block, err := database.POW(mineCtx, database.POWArgs{
		PrevBlock:  prevBlock,
		Record:     record,
		Difficulty: l.difficulty,
		Now:        now,
		EvHandler:  l.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	l.evHandler("ledger: mineAndWrite: write to storage: blk[%d]: hash[%s]", block.Index, block.Hash)

	if err := l.storage.Write(ctx, block); err != nil {
		return database.Block{}, database.NewStoreError("write", err)
	}

	return block, nil
}
