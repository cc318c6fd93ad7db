package memory_test

import (
	"testing"

	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/memory"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/storagetest"
)

func Test_Memory(t *testing.T) {
	strg, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to construct memory storage: %s", err)
	}
	defer strg.Close()

	storagetest.Run(t, strg)
}
