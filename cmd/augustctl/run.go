package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/augustctl/augustctl-go/pkg/lock"
	"github.com/augustctl/augustctl-go/pkg/transport"
)

// operation runs against a connected lock and reports to out.
type operation func(ctx context.Context, l *lock.Lock, out io.Writer) error

var operations = map[string]operation{
	"status": func(ctx context.Context, l *lock.Lock, out io.Writer) error {
		status, err := l.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, status)
		return nil
	},
	"lock": func(ctx context.Context, l *lock.Lock, out io.Writer) error {
		if _, err := l.ForceLock(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "locked")
		return nil
	},
	"unlock": func(ctx context.Context, l *lock.Lock, out io.Writer) error {
		if _, err := l.ForceUnlock(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "unlocked")
		return nil
	},
	"connect": func(ctx context.Context, l *lock.Lock, out io.Writer) error {
		fmt.Fprintf(out, "connected to %s (%s)\n", l.ID(), l.State())
		return nil
	},
}

func operationList() string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// run connects to p, performs the named operation and disconnects, on
// success and failure alike.
func run(ctx context.Context, p transport.Peripheral, cfg lock.Config, name string, out io.Writer) (err error) {
	op, ok := operations[name]
	if !ok {
		return fmt.Errorf("invalid operation: %q (use %s)", name, operationList())
	}

	l, err := lock.New(p, cfg)
	if err != nil {
		return err
	}

	// Disconnect runs even after the operation deadline expired.
	defer func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ResponseTimeout+time.Second)
		defer cancel()
		if derr := l.Disconnect(dctx); derr != nil {
			err = errors.Join(err, fmt.Errorf("disconnect: %w", derr))
		}
	}()

	if err := l.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return op(ctx, l, out)
}
