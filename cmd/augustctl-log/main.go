// Command augustctl-log views and analyzes lock protocol captures.
//
// Capture files are written by augustctl and augustctl-server when run
// with -protocol-log. The decode command also accepts the tab-separated
// sniffer exports used for reverse engineering.
//
// Usage:
//
//	augustctl-log <command> [flags] <file>
//
// Examples:
//
//	# View only secure channel frames
//	augustctl-log view -channel secure lock.alog
//
//	# Decipher a capture with the offline key from config.json
//	augustctl-log decode -config config.json lock.alog
//
//	# Decrypt the vendor app preferences
//	augustctl-log prefs LockSettingsPreferences.xml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/augustctl/augustctl-go/cmd/augustctl-log/commands"
	"github.com/augustctl/augustctl-go/pkg/config"
	"github.com/augustctl/augustctl-go/pkg/lock"
)

const usage = `augustctl-log - Lock Protocol Log Analyzer

Usage:
  augustctl-log <command> [flags] <file>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file
  decode   Decipher a capture with the offline key
  prefs    Decrypt the vendor app preferences XML

Use "augustctl-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "decode":
		runDecode(args)
	case "prefs":
		runPrefs(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newFlagSet builds a flag set whose usage text names the command.
func newFlagSet(name, summary, operand string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "augustctl-log %s - %s\n\nUsage:\n  augustctl-log %s [flags] %s\n\nFlags:\n", name, summary, name, operand)
		fs.PrintDefaults()
	}
	return fs
}

// parseOperand parses args and returns the single positional argument.
func parseOperand(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: input file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	opts := &commands.FilterOptions{}
	fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
	fs.StringVar(&opts.LockID, "lock-id", "", "Filter by lock ID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter events at or after time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter events before time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, session, lock)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (frame, state, error)")
	fs.StringVar(&opts.Channel, "channel", "", "Filter by channel (classic, secure)")
	return opts
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format", "<file.alog>")
	opts := filterFlags(fs)
	path := parseOperand(fs, args)

	filter, err := commands.BuildFilter(*opts)
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export log file to JSON or CSV format", "<file.alog>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parseOperand(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter log file and write to new file", "<file.alog>")
	opts := filterFlags(fs)
	output := fs.String("o", "", "Output file (required)")
	path := parseOperand(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}
	if err := commands.RunFilter(path, *output, *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file", "<file.alog>")
	path := parseOperand(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}

func runDecode(args []string) {
	fs := newFlagSet("decode", "Decipher a capture with the offline key", "<file.alog|sniffer.tsv>")
	keyHex := fs.String("key", "", "Offline key (32 hex characters)")
	configPath := fs.String("config", "", "Read the offline key from this config file")
	path := parseOperand(fs, args)

	key, err := offlineKey(*keyHex, *configPath)
	if err != nil {
		fail(err)
	}
	if err := commands.RunDecode(path, key, os.Stdout); err != nil {
		fail(err)
	}
}

// offlineKey prefers an explicit key over the config file.
func offlineKey(keyHex, configPath string) ([]byte, error) {
	if keyHex != "" {
		return lock.ParseOfflineKey(keyHex)
	}
	cfg, err := config.Load(config.Path(configPath))
	if err != nil {
		return nil, err
	}
	return lock.ParseOfflineKey(cfg.OfflineKey)
}

func runPrefs(args []string) {
	fs := newFlagSet("prefs", "Decrypt the vendor app preferences XML", "<prefs.xml>")
	path := parseOperand(fs, args)

	if err := commands.RunPrefs(path, os.Stdout); err != nil {
		fail(err)
	}
}
