package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aeroledger/aeroledger/app/services/node/handlers"
	"github.com/aeroledger/aeroledger/foundation/blockchain/genesis"
	"github.com/aeroledger/aeroledger/foundation/blockchain/ledger"
	"github.com/aeroledger/aeroledger/foundation/blockchain/signature"
	"github.com/aeroledger/aeroledger/foundation/blockchain/storage"
	"github.com/aeroledger/aeroledger/foundation/events"
	"github.com/aeroledger/aeroledger/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:5200"`
			CORSOrigin      string        `conf:"default:*"`
		}
		Ledger struct {
			Difficulty  uint          `conf:"default:0"`
			MineTimeout time.Duration `conf:"default:30s"`
			GenesisPath string        `conf:"default:zblock/genesis.json"`
		}
		Storage struct {
			Kind            string        `conf:"default:disk"`
			Path            string        `conf:"default:zblock/blocks"`
			MongoURI        string        `conf:"default:mongodb://localhost:27017,mask"`
			MongoDatabase   string        `conf:"default:aircraft_maintenance"`
			MongoCollection string        `conf:"default:blocks"`
			MongoTimeout    time.Duration `conf:"default:5s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "aircraft maintenance ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	// The genesis file is optional. Without it the default settings apply.
	gen, err := genesis.Load(cfg.Ledger.GenesisPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to load genesis file: %w", err)
		}
		log.Infow("startup", "status", "genesis file not found, using defaults", "path", cfg.Ledger.GenesisPath)
		gen = genesis.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.MongoTimeout+cfg.Web.ShutdownTimeout)
	defer cancel()

	strg, err := storage.Open(ctx, storage.Config{
		Kind:            cfg.Storage.Kind,
		Path:            cfg.Storage.Path,
		MongoURI:        cfg.Storage.MongoURI,
		MongoDatabase:   cfg.Storage.MongoDatabase,
		MongoCollection: cfg.Storage.MongoCollection,
		MongoTimeout:    cfg.Storage.MongoTimeout,
	})
	if err != nil {
		return fmt.Errorf("unable to open %s storage: %w", cfg.Storage.Kind, err)
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also published as ledger
	// events to any websocket client subscribed through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Publish(events.Ledger(s))
	}

	ldg, err := ledger.New(ledger.Config{
		Storage:     strg,
		Genesis:     gen,
		Difficulty:  cfg.Ledger.Difficulty,
		MineTimeout: cfg.Ledger.MineTimeout,
		EvHandler:   ev,
	})
	if err != nil {
		strg.Close()
		return fmt.Errorf("unable to construct ledger: %w", err)
	}
	defer ldg.Shutdown()

	// Mining the genesis block can take a while at higher difficulties, so
	// it is not bound by the startup timeout.
	genBlock, err := ldg.CreateGenesis(context.Background())
	if err != nil {
		return fmt.Errorf("unable to create genesis block: %w", err)
	}
	log.Infow("startup", "status", "genesis ready", "hash", genBlock.Hash, "difficulty", ldg.Difficulty())

	// The node key is generated on every start. Signatures produced by an
	// earlier run can only be verified with that run's public key.
	signer, err := signature.New()
	if err != nil {
		return fmt.Errorf("unable to construct signer: %w", err)
	}

	pem, err := signer.PublicKeyPEM()
	if err != nil {
		return err
	}
	log.Infow("startup", "status", "signer ready", "publickey", pem)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, ldg)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	// Construct the mux for the API calls.
	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		Ledger:     ldg,
		Signer:     signer,
		Evts:       evts,
		CORSOrigin: cfg.Web.CORSOrigin,
	})

	// Construct a server to service the requests against the mux.
	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown API started")
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
