// Package interactive provides the interactive command-line interface
// for augustctl.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/augustctl/augustctl-go/pkg/lock"
)

// Shell handles interactive mode for augustctl.
type Shell struct {
	lock    *lock.Lock
	timeout time.Duration
	rl      *readline.Instance
	out     io.Writer
}

// New creates a shell for l. Each command is bounded by timeout.
func New(l *lock.Lock, timeout time.Duration) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "augustctl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("connect"),
			readline.PcItem("disconnect"),
			readline.PcItem("status"),
			readline.PcItem("lock"),
			readline.PcItem("unlock"),
			readline.PcItem("state"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s := newShell(l, timeout, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(l *lock.Lock, timeout time.Duration, out io.Writer) *Shell {
	return &Shell{lock: l, timeout: timeout, out: out}
}

// Stderr returns a writer that properly coordinates with the readline input.
func (s *Shell) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Run connects, reads commands until quit, EOF or ctx ends, and always
// disconnects before returning.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()
	defer s.disconnect(ctx)

	s.printHelp()
	s.cmdConnect(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
		if s.Execute(ctx, line) {
			return
		}
	}
}

// Execute runs one command line. It reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}

	switch strings.ToLower(parts[0]) {
	case "help", "?":
		s.printHelp()
	case "connect", "c":
		s.cmdConnect(ctx)
	case "disconnect", "d":
		s.disconnect(ctx)
	case "status", "s":
		s.cmdStatus(ctx)
	case "lock", "l":
		s.cmdLock(ctx)
	case "unlock", "u":
		s.cmdUnlock(ctx)
	case "state":
		fmt.Fprintf(s.out, "%s: %s\n", s.lock.ID(), s.lock.State())
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help')\n", parts[0])
	}
	return false
}

func (s *Shell) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Shell) cmdConnect(ctx context.Context) {
	if s.lock.State() == lock.StateReady {
		fmt.Fprintln(s.out, "Already connected")
		return
	}
	if s.lock.State() != lock.StateDisconnected {
		// Leftover link from a failed handshake.
		s.disconnect(ctx)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.lock.Connect(ctx); err != nil {
		fmt.Fprintf(s.out, "Connect failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Connected to %s\n", s.lock.ID())
}

func (s *Shell) disconnect(ctx context.Context) {
	if s.lock.State() == lock.StateDisconnected {
		return
	}
	ctx, cancel := s.withTimeout(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.lock.Disconnect(ctx); err != nil {
		fmt.Fprintf(s.out, "Disconnect: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Disconnected")
}

func (s *Shell) cmdStatus(ctx context.Context) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	status, err := s.lock.Status(ctx)
	if err != nil {
		s.commandFailed(ctx, "status", err)
		return
	}
	fmt.Fprintf(s.out, "Lock is %s\n", status)
}

func (s *Shell) cmdLock(ctx context.Context) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.lock.ForceLock(ctx); err != nil {
		s.commandFailed(ctx, "lock", err)
		return
	}
	fmt.Fprintln(s.out, "Locked")
}

func (s *Shell) cmdUnlock(ctx context.Context) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.lock.ForceUnlock(ctx); err != nil {
		s.commandFailed(ctx, "unlock", err)
		return
	}
	fmt.Fprintln(s.out, "Unlocked")
}

// commandFailed reports err. Any failure other than a missing session
// leaves the cipher chains unusable, so the link is dropped.
func (s *Shell) commandFailed(ctx context.Context, name string, err error) {
	fmt.Fprintf(s.out, "%s failed: %v\n", name, err)
	if errors.Is(err, lock.ErrNotReady) {
		fmt.Fprintln(s.out, "Not connected (type 'connect')")
		return
	}
	s.disconnect(ctx)
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Commands:
  connect, c      Connect and run the handshake
  disconnect, d   End the session
  status, s       Query the bolt state
  lock, l         Lock
  unlock, u       Unlock
  state           Show the connection state
  help, ?         Show this help
  quit, q         Disconnect and exit`)
}
