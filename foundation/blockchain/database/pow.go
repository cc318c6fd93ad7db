package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiningAborted is returned when the context used for mining is
// cancelled before a solution is found. No block is produced.
var ErrMiningAborted = errors.New("mining aborted")

// POWArgs provides the arguments for mining the next block.
type POWArgs struct {
	PrevBlock  *Block
	Record     MaintenanceRecord
	Difficulty uint
	Now        time.Time
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The returned block has its hash
// assigned and is ready to be written to storage.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	now := args.Now
	if now.IsZero() {
		now = time.Now()
	}

	nb := NewBlock(args.PrevBlock, args.Record, now)

	if err := nb.Mine(ctx, args.Difficulty, ev); err != nil {
		return Block{}, err
	}

	nb.Hash = nb.CalculateHash()

	return nb, nil
}

// Mine does the work of finding a nonce that produces a hash with the
// specified number of leading zeros. Pointer semantics are being used since
// a nonce is being discovered. The search starts at zero and walks the nonce
// space one value at a time.
func (b *Block) Mine(ctx context.Context, difficulty uint, ev func(v string, args ...any)) error {
	ev("database: Mine: MINING: started: blk[%d]", b.Index)
	defer ev("database: Mine: MINING: completed: blk[%d]", b.Index)

	b.Nonce = 0

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if err := ctx.Err(); err != nil {
			ev("database: Mine: MINING: CANCELLED: attempts[%d]", attempts)
			return fmt.Errorf("%w: %w", ErrMiningAborted, err)
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.CalculateHash()
		if !isHashSolved(difficulty, hash) {
			b.Nonce++
			continue
		}

		ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.PrevBlockHash, hash)
		ev("database: Mine: MINING: attempts[%d]", attempts)

		return nil
	}
}
