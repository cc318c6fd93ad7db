// Package cmd contains the admin commands for inspecting and maintaining
// the chain directly against its storage.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aeroledger/aeroledger/foundation/blockchain/genesis"
	"github.com/aeroledger/aeroledger/foundation/blockchain/ledger"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage"
	"github.com/aeroledger/aeroledger/foundation/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	storeKind       string
	storePath       string
	genesisPath     string
	difficulty      uint
	mongoURI        string
	mongoDatabase   string
	mongoCollection string
	verbose         bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&storeKind, "store", "s", storage.KindDisk, "Storage kind: memory, disk, leveldb or mongo.")
	rootCmd.PersistentFlags().StringVarP(&storePath, "path", "p", "zblock/blocks", "Path to the disk or leveldb storage.")
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
	rootCmd.PersistentFlags().UintVarP(&difficulty, "difficulty", "d", 0, "Overrides the genesis difficulty when not zero.")
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB connection string.")
	rootCmd.PersistentFlags().StringVar(&mongoDatabase, "mongo-db", "aircraft_maintenance", "MongoDB database name.")
	rootCmd.PersistentFlags().StringVar(&mongoCollection, "mongo-collection", "blocks", "MongoDB collection name.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log ledger events.")
}

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Administer the aircraft maintenance chain",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command named on the command line.
func Execute(build string) {
	rootCmd.Version = build

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// openLedger opens the configured storage and constructs a ledger over it.
// The caller must call Shutdown on the returned ledger.
func openLedger(ctx context.Context) (*ledger.Ledger, error) {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading genesis: %w", err)
		}
		gen = genesis.Default()
	}

	strg, err := storage.Open(ctx, storage.Config{
		Kind:            storeKind,
		Path:            storePath,
		MongoURI:        mongoURI,
		MongoDatabase:   mongoDatabase,
		MongoCollection: mongoCollection,
		MongoTimeout:    5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", storeKind, err)
	}

	ev, err := evHandler()
	if err != nil {
		strg.Close()
		return nil, err
	}

	ldg, err := ledger.New(ledger.Config{
		Storage:     strg,
		Genesis:     gen,
		Difficulty:  difficulty,
		MineTimeout: mineTimeout,
		EvHandler:   ev,
	})
	if err != nil {
		strg.Close()
		return nil, err
	}

	return ldg, nil
}

// evHandler returns the ledger event handler. Events are only logged when
// verbose output is requested.
func evHandler() (ledger.EventHandler, error) {
	if !verbose {
		return nil, nil
	}

	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		return nil, err
	}

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	return ev, nil
}

// shortHash keeps tables readable by trimming long hashes.
func shortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}
