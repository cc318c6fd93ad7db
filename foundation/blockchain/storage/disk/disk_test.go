package disk_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/disk"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/storagetest"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Disk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blocks")

	strg, err := disk.New(dir)
	if err != nil {
		t.Fatalf("Should be able to construct disk storage: %s", err)
	}
	defer strg.Close()

	storagetest.Run(t, strg)

	if _, err := os.Stat(filepath.Join(dir, "1.json")); err != nil {
		t.Fatalf("Should write one file per block: %s", err)
	}

	// A second value over the same folder sees the same chain.
	strg2, err := disk.New(dir)
	if err != nil {
		t.Fatalf("Should be able to reopen disk storage: %s", err)
	}

	blocks, err := strg2.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("Should be able to read the chain after reopening: %s", err)
	}
	if len(blocks) == 0 {
		t.Fatalf("Should read the chain after reopening.")
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil || len(matches) != 0 {
		t.Fatalf("Should not leave scratch files behind: %v %v", matches, err)
	}
}

func Test_InterruptedWrite(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "blocks")

	strg, err := disk.New(dir)
	if err != nil {
		t.Fatalf("Should be able to construct disk storage: %s", err)
	}

	genesis := database.NewBlock(nil, database.GenesisRecord(), time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	genesis.Hash = genesis.CalculateHash()

	if err := strg.Write(ctx, genesis); err != nil {
		t.Fatalf("Should be able to write the genesis block: %s", err)
	}

	// Simulate a process that died halfway through writing block 2.
	stray := filepath.Join(dir, ".block-123456.tmp")
	if err := os.WriteFile(stray, []byte(`{"index":2,"aircraft_na`), 0600); err != nil {
		t.Fatalf("Should be able to write the scratch file: %s", err)
	}

	t.Log("Given a block write that never completed.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen reading the chain.", testID)
		{
			blocks, err := strg.ReadAll(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the chain : %v", failed, testID, err)
			}
			if len(blocks) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould only read the genesis block : got %d", failed, testID, len(blocks))
			}
			t.Logf("\t%s\tTest %d:\tShould only read the genesis block.", success, testID)

			latest, err := strg.LatestBlock(ctx)
			if err != nil || latest.Index != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould get the genesis block as latest : %d %v", failed, testID, latest.Index, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get the genesis block as latest.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen appending the next block.", testID)
		{
			rec := database.MaintenanceRecord{
				AircraftName:           "N12345",
				Age:                    4,
				ChangedComponents:      []string{"fuel pump"},
				ComponentRepairHistory: []string{"seal replaced"},
				AccidentalRecords:      []string{"None"},
			}
			next := database.NewBlock(&genesis, rec, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC))
			next.Hash = next.CalculateHash()

			if err := strg.Write(ctx, next); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write block 2 : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to write block 2.", success, testID)

			block, err := strg.GetBlock(ctx, 2)
			if err != nil || block.Hash != next.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould read back block 2 : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould read back block 2.", success, testID)

			if err := strg.Write(ctx, next); !errors.Is(err, os.ErrExist) {
				t.Fatalf("\t%s\tTest %d:\tShould not overwrite block 2 : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not overwrite block 2.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reopening the storage.", testID)
		{
			if _, err := disk.New(dir); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reopen the storage : %v", failed, testID, err)
			}

			if _, err := os.Stat(stray); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("\t%s\tTest %d:\tShould remove the scratch file : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould remove the scratch file.", success, testID)
		}
	}
}
