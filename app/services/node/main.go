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

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxoledger/app/services/node/handlers"
	"github.com/ardanlabs/utxoledger/business/sim"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/node"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/events"
	"github.com/ardanlabs/utxoledger/foundation/logger"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/prometheus/client_golang/prometheus"
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
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Ledger struct {
			GenesisFile   string `conf:"help:optional json file overriding the genesis defaults"`
			Difficulty    uint16 `conf:"default:4"`
			SeedAmount    uint64 `conf:"default:50"`
			SeedRecipient string `conf:"default:genesis"`
			Strict        bool   `conf:"default:false"`
			CoinbaseLimit uint64 `conf:"default:0,help:largest zero input transaction after genesis in strict mode where 0 is no limit"`
		}
		Network struct {
			Size     int    `conf:"default:3"`
			Topology string `conf:"default:mesh"`
		}
		Scenario struct {
			Run    bool   `conf:"default:true"`
			Amount uint64 `conf:"default:30"`
		}
		NameService struct {
			Folder string `conf:"help:folder of .ecdsa wallet keys used to name recipients"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "in-process utxo ledger network",
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
	// Name Service Support

	// The nameservice package provides name resolution for public key
	// recipients. The names come from the file names in the configured folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load name service: %w", err)
	}

	for recipient, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "recipient", recipient)
	}

	// =========================================================================
	// Ledger Support

	gen := genesis.Default()
	if cfg.Ledger.GenesisFile != "" {
		if gen, err = genesis.Load(cfg.Ledger.GenesisFile); err != nil {
			return fmt.Errorf("unable to load genesis: %w", err)
		}
	} else {
		gen.Difficulty = cfg.Ledger.Difficulty
		gen.SeedAmount = cfg.Ledger.SeedAmount
		gen.SeedRecipient = cfg.Ledger.SeedRecipient
	}

	topology, err := sim.ParseTopology(cfg.Network.Topology)
	if err != nil {
		return err
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	network, err := sim.Build(sim.Config{
		Size:          cfg.Network.Size,
		Topology:      topology,
		Genesis:       gen,
		Strict:        cfg.Ledger.Strict,
		CoinbaseLimit: cfg.Ledger.CoinbaseLimit,
		EvHandler:     ev,
		Metrics:       node.NewMetrics(registry),
	})
	if err != nil {
		return fmt.Errorf("building network: %w", err)
	}

	log.Infow("startup", "status", "network built", "nodes", len(network.Nodes), "topology", topology, "genesis", network.Genesis.Hash)

	if cfg.Scenario.Run {
		if err := runScenario(log, network, ns, cfg.Scenario.Amount); err != nil {
			return fmt.Errorf("running scenario: %w", err)
		}
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, network, registry)

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
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Network:  network,
		NS:       ns,
		Evts:     evts,
		Registry: registry,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
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
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// runScenario creates two wallets, names them and plays the claim and
// payment across the network.
func runScenario(log *zap.SugaredLogger, network *sim.Network, ns *nameservice.NameService, amount uint64) error {
	alice, err := wallet.New()
	if err != nil {
		return err
	}
	bob, err := wallet.New()
	if err != nil {
		return err
	}

	ns.Add(alice.Recipient(), "alice")
	ns.Add(bob.Recipient(), "bob")

	report, err := network.RunScenario(alice, bob, amount)
	if err != nil {
		return err
	}

	log.Infow("scenario", "status", "completed", "blocks", len(report.Blocks), "utxos", len(report.UTXOs), "total", report.Total, "converged", report.Converged)

	return nil
}
