// Command augustctl controls a lock over Bluetooth LE.
//
// Usage:
//
//	augustctl [flags] <status|lock|unlock|connect>
//
// Flags:
//
//	-config string        Configuration file (default $AUGUSTCTL_CONFIG or ./config.json)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write a CBOR protocol capture to this file
//	-timeout duration     Overall timeout for scan and operation (default 1m)
//	-interactive          Keep the connection open and read commands
//
// Examples:
//
//	# Query the bolt state
//	augustctl status
//
//	# Unlock with a capture for later decoding
//	augustctl -protocol-log unlock.alog unlock
//
//	# Interactive session
//	augustctl -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/augustctl/augustctl-go/cmd/augustctl/interactive"
	"github.com/augustctl/augustctl-go/pkg/ble"
	"github.com/augustctl/augustctl-go/pkg/config"
	"github.com/augustctl/augustctl-go/pkg/lock"
	alog "github.com/augustctl/augustctl-go/pkg/log"
)

// Flags holds the command-line flags.
type Flags struct {
	ConfigFile  string
	LogLevel    string
	ProtocolLog string
	Timeout     time.Duration
	Interactive bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file (default $AUGUSTCTL_CONFIG or ./config.json)")
	flag.StringVar(&flags.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Write a CBOR protocol capture to this file")
	flag.DurationVar(&flags.Timeout, "timeout", time.Minute, "Overall timeout for scan and operation")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Keep the connection open and read commands")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <%s>\n\nFlags:\n", os.Args[0], operationList())
		flag.PrintDefaults()
	}
	flag.Parse()

	operation := flag.Arg(0)
	if !flags.Interactive {
		if _, ok := operations[operation]; !ok {
			flag.Usage()
			os.Exit(1)
		}
	}

	logger := setupLogging(flags.LogLevel)

	cfg, err := config.Load(config.Path(flags.ConfigFile))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	lockCfg, err := cfg.LockConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	lockCfg.Logger = logger

	protoLogger, closeLog, err := setupProtocolLog(flags.ProtocolLog, cfg.ProtocolLog, logger)
	if err != nil {
		log.Fatalf("Failed to open protocol log: %v", err)
	}
	defer closeLog()
	lockCfg.ProtocolLogger = protoLogger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scanCtx, scanCancel := context.WithTimeout(ctx, cfg.ScanTimeout)
	log.Printf("Scanning for lock %q...", cfg.LockID())
	peripheral, err := ble.NewScanner(logger).Scan(scanCtx, cfg.LockID())
	scanCancel()
	if err != nil {
		log.Printf("Scan failed: %v", err)
		closeLog()
		os.Exit(1)
	}
	log.Printf("Found lock %s", peripheral.ID())

	if flags.Interactive {
		l, err := lock.New(peripheral, lockCfg)
		if err != nil {
			log.Fatalf("Failed to create lock: %v", err)
		}
		shell, err := interactive.New(l, flags.Timeout)
		if err != nil {
			log.Fatalf("Failed to start interactive mode: %v", err)
		}
		log.SetOutput(shell.Stderr())
		shell.Run(ctx)
		return
	}

	opCtx, opCancel := context.WithTimeout(ctx, flags.Timeout)
	defer opCancel()
	if err := run(opCtx, peripheral, lockCfg, operation, os.Stdout); err != nil {
		log.Printf("Error: %v", err)
		opCancel()
		closeLog()
		os.Exit(1)
	}
}

// setupLogging configures the standard logger flags and returns the
// structured logger handed to the library.
func setupLogging(level string) *slog.Logger {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	var slogLevel slog.Level
	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
		slogLevel = slog.LevelDebug
	case "warn":
		log.SetFlags(log.Ltime)
		slogLevel = slog.LevelWarn
	case "error":
		log.SetFlags(log.Ltime)
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))
}

// setupProtocolLog combines the capture file (flag first, then config)
// with an slog mirror of protocol events. The returned func closes the
// capture file.
func setupProtocolLog(flagPath, cfgPath string, logger *slog.Logger) (alog.Logger, func(), error) {
	path := flagPath
	if path == "" {
		path = cfgPath
	}

	mirror := alog.NewSlogAdapter(logger)
	if path == "" {
		return mirror, func() {}, nil
	}

	fl, err := alog.NewFileLogger(path)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Protocol capture: %s", path)
	return alog.NewMultiLogger(fl, mirror), func() { fl.Close() }, nil
}
