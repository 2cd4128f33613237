// Command augustctl-server exposes a lock over HTTP.
//
// It scans for the configured lock in the background and then serves:
//   - GET /api/status  - report the bolt state
//   - GET /api/lock    - lock if unlocked
//   - GET /api/unlock  - unlock if locked
//   - GET /api/v1/health, GET /api/v1/history
//
// Every request opens its own connection to the lock and closes it before
// answering. Operations are recorded in a SQLite history.
//
// Usage:
//
//	augustctl-server [flags]
//
// Flags:
//
//	-config string        Configuration file (default $AUGUSTCTL_CONFIG or ./config.json)
//	-db string            SQLite history database (overrides historyDb)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write a CBOR protocol capture to this file
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/augustctl/augustctl-go/pkg/ble"
	"github.com/augustctl/augustctl-go/pkg/config"
	"github.com/augustctl/augustctl-go/pkg/lock"
	alog "github.com/augustctl/augustctl-go/pkg/log"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"
)

var (
	configFile  = flag.String("config", "", "Configuration file (default $AUGUSTCTL_CONFIG or ./config.json)")
	dbPath      = flag.String("db", "", "SQLite history database (overrides historyDb)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	protocolLog = flag.String("protocol-log", "", "Write a CBOR protocol capture to this file")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("augustctl-server %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	log.SetFlags(log.Ldate | log.Ltime)
	level := slog.LevelInfo
	if *logLevel == "debug" {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(config.Path(*configFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	lockCfg, err := cfg.LockConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	lockCfg.Logger = logger

	var protoLoggers []alog.Logger
	if path := firstNonEmpty(*protocolLog, cfg.ProtocolLog); path != "" {
		fl, err := alog.NewFileLogger(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open protocol log: %v\n", err)
			return 1
		}
		defer fl.Close()
		protoLoggers = append(protoLoggers, fl)
		log.Printf("Protocol capture: %s", path)
	}
	protoLoggers = append(protoLoggers, alog.NewSlogAdapter(logger))
	lockCfg.ProtocolLogger = alog.NewMultiLogger(protoLoggers...)

	srv, err := NewServer(ServerConfig{
		Addr:             cfg.ListenAddr(),
		DBPath:           firstNonEmpty(*dbPath, cfg.HistoryDB),
		Version:          Version,
		OperationTimeout: 2*cfg.ResponseTimeout + 30*time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create server: %v\n", err)
		return 1
	}
	defer srv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scanErr := make(chan error, 1)
	go func() {
		scanCtx, scanCancel := context.WithTimeout(ctx, cfg.ScanTimeout)
		defer scanCancel()
		p, err := ble.NewScanner(logger).Scan(scanCtx, cfg.LockID())
		if err != nil {
			scanErr <- err
			return
		}
		l, err := lock.New(p, lockCfg)
		if err != nil {
			scanErr <- err
			return
		}
		srv.SetLock(l)
		log.Printf("Lock %s available", p.ID())
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Listening at http://%s", cfg.ListenAddr())
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-scanErr:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		shutdown(srv)
		return 1
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
			return 1
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdown(srv)
	}
	return 0
}

func shutdown(srv *Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
