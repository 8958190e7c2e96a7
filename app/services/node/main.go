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
	"github.com/noobcash/blockchain/app/services/node/handlers"
	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/genesis"
	"github.com/noobcash/blockchain/foundation/blockchain/state"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/disk"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/memory"
	"github.com/noobcash/blockchain/foundation/blockchain/worker"
	"github.com/noobcash/blockchain/foundation/events"
	"github.com/noobcash/blockchain/foundation/logger"
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
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
		}
		Node struct {
			ID               int           `conf:"default:0"`
			Nodes            int           `conf:"default:4"`
			Host             string        `conf:"default:localhost:9080"`
			BootstrapHost    string        `conf:"default:localhost:9080"`
			KeyPath          string
			GenesisPath      string        `conf:"default:zblock/genesis.json"`
			WorkloadDir      string        `conf:"default:zblock/transactions"`
			ArchivePath      string
			AdoptEqualLength bool          `conf:"default:false"`
			PeerTimeout      time.Duration `conf:"default:10s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "noobcash blockchain node",
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

	log.Infow("starting service", "version", build, "id", cfg.Node.ID)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	gen, err := genesis.Load(cfg.Node.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis: %w", err)
	}

	wallet, err := loadWallet(cfg.Node.KeyPath)
	if err != nil {
		return fmt.Errorf("unable to load wallet for node: %w", err)
	}
	log.Infow("startup", "status", "wallet loaded", "public_key", wallet.PublicKey)

	// Blocks are mirrored into a bolt archive when a path is configured,
	// otherwise they only live in memory.
	var storage database.Storage = memory.New()
	if cfg.Node.ArchivePath != "" {
		d, err := disk.New(cfg.Node.ArchivePath)
		if err != nil {
			return fmt.Errorf("unable to open archive: %w", err)
		}
		storage = d
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. Messages carrying the viewer prefix are also sent
	// to any websocket client connected through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")

		if evt, ok := events.Parse(cfg.Node.ID, s); ok {
			evts.Send(evt)
		}
	}

	st, err := state.New(state.Config{
		ID:               cfg.Node.ID,
		Nodes:            cfg.Node.Nodes,
		Host:             cfg.Node.Host,
		BootstrapHost:    cfg.Node.BootstrapHost,
		Wallet:           wallet,
		Genesis:          gen,
		Storage:          storage,
		Transport:        state.NewHTTPTransport(cfg.Node.PeerTimeout),
		WorkloadDir:      cfg.Node.WorkloadDir,
		AdoptEqualLength: cfg.Node.AdoptEqualLength,
		EvHandler:        ev,
	})
	if err != nil {
		storage.Close()
		return err
	}
	defer st.Shutdown()

	// The worker package implements mining and registration with the
	// bootstrap node. The worker will register itself with the state.
	worker.Run(st, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st)

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

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
	})

	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
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
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// loadWallet reads the node key from disk. A missing file is created with a
// new key so the node keeps its identity across restarts.
func loadWallet(path string) (database.Wallet, error) {
	if path == "" {
		return database.NewWallet()
	}

	if _, err := os.Stat(path); err == nil {
		return database.LoadWallet(path)
	}

	w, err := database.NewWallet()
	if err != nil {
		return database.Wallet{}, err
	}

	if err := w.Save(path); err != nil {
		return database.Wallet{}, err
	}

	return w, nil
}
