// Package storagetest provides a common set of checks every
// database.Storage implementation must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Run writes a small chain into the storage and checks it can be read back
// in order. The storage is expected to be empty.
func Run(t *testing.T, strg database.Storage) {
	t.Helper()

	ctx := context.Background()

	t.Log("Given the need to store and read blocks.")
	{
		t.Logf("\tTest 0:\tWhen the storage is empty.")
		{
			if _, err := strg.LatestBlock(ctx); !errors.Is(err, database.ErrChainEmpty) {
				t.Fatalf("\t%s\tTest 0:\tShould get ErrChainEmpty: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get ErrChainEmpty.", success)

			if _, err := strg.GetBlock(ctx, 1); !errors.Is(err, database.ErrBlockNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould get ErrBlockNotFound: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get ErrBlockNotFound.", success)

			blocks, err := strg.ReadAll(ctx)
			if err != nil || len(blocks) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould read no blocks: %d %v", failed, len(blocks), err)
			}
			t.Logf("\t%s\tTest 0:\tShould read no blocks.", success)
		}

		chain := buildChain(t, 12)

		t.Logf("\tTest 1:\tWhen writing %d blocks.", len(chain))
		{
			for _, block := range chain {
				if err := strg.Write(ctx, block); err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to write block %d: %v", failed, block.Index, err)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould be able to write the blocks.", success)

			latest, err := strg.LatestBlock(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to get the latest block: %v", failed, err)
			}
			if latest.Hash != chain[len(chain)-1].Hash {
				t.Logf("\t%s\tTest 1:\tgot: %d", failed, latest.Index)
				t.Logf("\t%s\tTest 1:\texp: %d", failed, chain[len(chain)-1].Index)
				t.Fatalf("\t%s\tTest 1:\tShould get the last block written.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould get the last block written.", success)

			blocks, err := strg.ReadAll(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to read all blocks: %v", failed, err)
			}
			if len(blocks) != len(chain) {
				t.Fatalf("\t%s\tTest 1:\tShould read %d blocks, got %d.", failed, len(chain), len(blocks))
			}
			for i, block := range blocks {
				if block.Index != uint64(i+1) {
					t.Fatalf("\t%s\tTest 1:\tShould read blocks in index order, got %d at %d.", failed, block.Index, i)
				}
				if block.CalculateHash() != chain[i].Hash {
					t.Fatalf("\t%s\tTest 1:\tShould read back block %d unchanged.", failed, block.Index)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould read all blocks in order unchanged.", success)

			block, err := strg.GetBlock(ctx, 10)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to get block 10: %v", failed, err)
			}
			if block.Hash != chain[9].Hash {
				t.Fatalf("\t%s\tTest 1:\tShould get block 10.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould get block 10.", success)
		}

		t.Logf("\tTest 2:\tWhen writing an existing block again.")
		{
			if err := strg.Write(ctx, chain[0]); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould not be able to overwrite a block.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould not be able to overwrite a block.", success)
		}
	}
}

// buildChain constructs a linked chain without mining. Storage doesn't
// validate work so the hash only has to match the contents.
func buildChain(t *testing.T, n int) []database.Block {
	t.Helper()

	chain := make([]database.Block, 0, n)

	var prev *database.Block
	for i := 0; i < n; i++ {
		rec := database.MaintenanceRecord{
			AircraftName:           "N12345",
			Age:                    uint64(i),
			ChangedComponents:      []string{"fuel pump"},
			ComponentRepairHistory: []string{"seal replaced"},
			AccidentalRecords:      []string{},
		}
		if prev == nil {
			rec = database.GenesisRecord()
		}

		now := time.Date(2024, time.March, 1, 10, 0, i, 0, time.UTC)
		block := database.NewBlock(prev, rec, now)
		block.Hash = block.CalculateHash()

		chain = append(chain, block)
		prev = &chain[len(chain)-1]
	}

	return chain
}
