package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/mongo"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage/storagetest"
)

// Test_Mongo runs against a live MongoDB when AEROLEDGER_MONGO_URI is set.
func Test_Mongo(t *testing.T) {
	uri := os.Getenv("AEROLEDGER_MONGO_URI")
	if uri == "" {
		t.Skip("AEROLEDGER_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	strg, err := mongo.New(ctx, mongo.Config{
		URI:        uri,
		Database:   "aeroledger_test",
		Collection: fmt.Sprintf("blocks_%d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("Should be able to connect to mongo: %s", err)
	}
	defer strg.Close()

	storagetest.Run(t, strg)
}
