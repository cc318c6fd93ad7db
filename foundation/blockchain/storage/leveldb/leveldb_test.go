package leveldb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/leveldb"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/storagetest"
)

func Test_LevelDB(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blocks.ldb")

	strg, err := leveldb.New(dir)
	if err != nil {
		t.Fatalf("Should be able to open leveldb storage: %s", err)
	}

	storagetest.Run(t, strg)

	latest, err := strg.LatestBlock(context.Background())
	if err != nil {
		t.Fatalf("Should be able to get the latest block: %s", err)
	}

	if err := strg.Close(); err != nil {
		t.Fatalf("Should be able to close leveldb storage: %s", err)
	}

	strg, err = leveldb.New(dir)
	if err != nil {
		t.Fatalf("Should be able to reopen leveldb storage: %s", err)
	}
	defer strg.Close()

	reopened, err := strg.LatestBlock(context.Background())
	if err != nil {
		t.Fatalf("Should be able to get the latest block after reopening: %s", err)
	}

	if reopened.Hash != latest.Hash {
		t.Logf("got: %s", reopened.Hash)
		t.Logf("exp: %s", latest.Hash)
		t.Fatalf("Should get the same latest block after reopening.")
	}
}
