package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"landrush.gg/internal/capability/ledger"
	"landrush.gg/internal/capability/protection"
	"landrush.gg/internal/capability/snapshot"
	"landrush.gg/internal/lease/engine"
	"landrush.gg/internal/lease/tuning"
	"landrush.gg/internal/persistence/leasedb"
	"landrush.gg/internal/transport/ws"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		configDir   = flag.String("configs", "./configs", "config directory")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		regionsPath = flag.String("regions", "", "path to regions.yaml bootstrap (default: <configs>/regions.yaml)")
		disableDB   = flag.Bool("disable_db", false, "disable lease persistence (state lost on restart)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	cfg, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("no tuning file at %s, using defaults", tp)
			cfg = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	var db *leasedb.DB
	if !*disableDB {
		db, err = leasedb.Open(filepath.Join(*dataDir, "leases.db"),
			log.New(os.Stdout, "[leasedb] ", log.LstdFlags|log.Lmicroseconds))
		if err != nil {
			logger.Fatalf("open lease db: %v", err)
		}
		defer db.Close()
	}

	funds, err := ledger.OpenSQLite(filepath.Join(*dataDir, "ledger.db"))
	if err != nil {
		logger.Fatalf("open ledger: %v", err)
	}
	defer funds.Close()

	world, err := snapshot.NewFlatFileWorld(filepath.Join(*dataDir, "world"))
	if err != nil {
		logger.Fatalf("open world adapter: %v", err)
	}
	snaps, err := snapshot.NewFileStore(filepath.Join(*dataDir, "snapshots"), world)
	if err != nil {
		logger.Fatalf("open snapshot store: %v", err)
	}

	prot := protection.NewInMemory()

	market, err := engine.New(cfg, engine.Deps{
		Ledger:     funds,
		Snapshots:  snaps,
		Protection: prot,
		DB:         db,
		Logger:     log.New(os.Stdout, "[market] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("market: %v", err)
	}
	if err := market.LoadFromDB(); err != nil {
		logger.Fatalf("load state: %v", err)
	}

	rp := strings.TrimSpace(*regionsPath)
	if rp == "" {
		rp = filepath.Join(*configDir, "regions.yaml")
	}
	if err := seedRegions(market, prot, rp, logger); err != nil {
		logger.Fatalf("seed regions: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := market.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("market loop: %v", err)
		}
	}()

	wsServer := ws.NewServer(market, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))

	mux := http.NewServeMux()
	mux.Handle("/v1/ws", wsServer.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s (world=%s tick=%s)", *addr, cfg.World, cfg.TickInterval())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Printf("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	cancel()
}
